package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/schedule"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/wise"
)

type fakeTeacherSource struct {
	users []schedule.User
	err   error
	calls int
}

func (f *fakeTeacherSource) Teachers(ctx context.Context) ([]schedule.User, error) {
	f.calls++
	return f.users, f.err
}

type fakeRosterSource struct {
	students []wise.Student
	err      error
	calls    int
}

func (f *fakeRosterSource) ListStudents(ctx context.Context) ([]wise.Student, error) {
	f.calls++
	return f.students, f.err
}

func strPtr(s string) *string { return &s }

func teacherRecord(id, phone, status string) schedule.User {
	return schedule.User{
		ID:          id,
		Relation:    schedule.RelationTeacher,
		Status:      status,
		Name:        strPtr("Teacher " + id),
		PhoneNumber: strPtr(phone),
	}
}

func TestStripWhitespace(t *testing.T) {
	assert.Equal(t, "+15550100", StripWhitespace("+1 555 0100"))
	assert.Equal(t, "+15550100", StripWhitespace(" +1\t555\n0100 "))
	assert.Equal(t, "", StripWhitespace("   "))
}

func TestResolveTeacherByPhone_WhitespaceInsensitiveExactMatch(t *testing.T) {
	src := &fakeTeacherSource{users: []schedule.User{
		teacherRecord("t1", "+1 555 0100", schedule.StatusAccepted),
	}}
	r := NewResolver(src, nil, nil, 0)

	got, err := r.ResolveTeacherByPhone(context.Background(), "+15550100")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "+1 555 0100", got.PhoneNumber)
	assert.Equal(t, schedule.RelationTeacher, got.Role)
	assert.Equal(t, 1, src.calls)
}

func TestResolveTeacherByPhone_DifferentNumberNotFound(t *testing.T) {
	src := &fakeTeacherSource{users: []schedule.User{
		teacherRecord("t1", "+1 555 0101", schedule.StatusAccepted),
	}}
	r := NewResolver(src, nil, nil, 0)

	_, err := r.ResolveTeacherByPhone(context.Background(), "+1 555 0102")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveTeacherByPhone_PendingTeacherNotFound(t *testing.T) {
	src := &fakeTeacherSource{users: []schedule.User{
		teacherRecord("t1", "+1 555 0100", "PENDING"),
	}}
	r := NewResolver(src, nil, nil, 0)

	_, err := r.ResolveTeacherByPhone(context.Background(), "+15550100")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveTeacherByPhone_WrongRelationNotFound(t *testing.T) {
	rec := teacherRecord("s1", "+1 555 0100", schedule.StatusAccepted)
	rec.Relation = schedule.RelationStudent
	src := &fakeTeacherSource{users: []schedule.User{rec}}
	r := NewResolver(src, nil, nil, 0)

	_, err := r.ResolveTeacherByPhone(context.Background(), "+15550100")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveTeacherByPhone_EmptyPhoneNotFoundWithoutQuery(t *testing.T) {
	src := &fakeTeacherSource{}
	r := NewResolver(src, nil, nil, 0)

	_, err := r.ResolveTeacherByPhone(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, src.calls, "no store query should run for a blank phone")
}

func TestResolveTeacherByPhone_SourceErrorPropagates(t *testing.T) {
	src := &fakeTeacherSource{err: errors.New("db down")}
	r := NewResolver(src, nil, nil, 0)

	_, err := r.ResolveTeacherByPhone(context.Background(), "+15550100")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolveStudentByPhone_ScansRosterOnce(t *testing.T) {
	roster := &fakeRosterSource{students: []wise.Student{
		{ID: "s1", UserID: wise.Person{Name: "Asha", PhoneNumber: "+91 98 7654 3210"}},
		{ID: "s2", UserID: wise.Person{Name: "Ben", PhoneNumber: "+1 555 0100"}},
	}}
	r := NewResolver(nil, roster, nil, 0)

	got, err := r.ResolveStudentByPhone(context.Background(), "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, 1, roster.calls, "roster must be fetched in one batch call")
}

func TestResolveStudentByPhone_NotFound(t *testing.T) {
	roster := &fakeRosterSource{students: []wise.Student{
		{ID: "s1", UserID: wise.Person{PhoneNumber: "+1 555 0101"}},
	}}
	r := NewResolver(nil, roster, nil, 0)

	_, err := r.ResolveStudentByPhone(context.Background(), "+1 555 0102")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveStudentByPhone_RosterErrorPropagates(t *testing.T) {
	roster := &fakeRosterSource{err: errors.New("wise 502")}
	r := NewResolver(nil, roster, nil, 0)

	_, err := r.ResolveStudentByPhone(context.Background(), "+15550100")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
