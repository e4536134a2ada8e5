package wise

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "inst-1", "key-1", "ns-1", "Bearer tok", 2*time.Second)
}

func TestListStudents_SendsCredentialHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":{"students":[{"_id":"s1","userId":{"name":"Asha","phoneNumber":"+1 555 0100"},"classes":[{"_id":"c1","name":"Maths A","subject":"Maths"}]}]}}`))
	})

	students, err := c.ListStudents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/institutes/inst-1/students", gotPath)
	assert.Equal(t, "status=ACCEPTED", gotQuery)
	assert.Equal(t, "Bearer tok", gotHeaders.Get("Authorization"))
	assert.Equal(t, "key-1", gotHeaders.Get("x-api-key"))
	assert.Equal(t, "ns-1", gotHeaders.Get("x-wise-namespace"))

	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	assert.Equal(t, "Asha", students[0].UserID.Name)
	require.Len(t, students[0].Classes, 1)
	assert.Equal(t, "Maths", students[0].Classes[0].Subject)
}

func TestContentTimeline_RequestsLockedSections(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":{"timeline":[{"entities":[{"_id":"t1","entityType":"test","status":"ACTIVE","name":"Quiz","createdAt":"2025-03-01T10:00:00Z"}]}]}}`))
	})

	timeline, err := c.ContentTimeline(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, "showSequentialLearningDisabledSections=true", gotQuery)
	require.Len(t, timeline, 1)
	require.Len(t, timeline[0].Entities, 1)
	assert.Equal(t, "Quiz", timeline[0].Entities[0].Name)
}

func TestFutureSessions_QueryAndPassthrough(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"data":[{"id":"sess-1","topic":"Algebra"},{"id":"sess-2"}]}`))
	})

	sessions, err := c.FutureSessions(context.Background())
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.JSONEq(t, `{"id":"sess-1","topic":"Algebra"}`, string(sessions[0]))

	assert.Equal(t, []string{"COUNT"}, gotQuery["paginateBy"])
	assert.Equal(t, []string{"1"}, gotQuery["page_number"])
	assert.Equal(t, []string{"5"}, gotQuery["page_size"])
	assert.Equal(t, []string{"FUTURE"}, gotQuery["status"])
}

func TestTeacherAvailability_DecodesSlots(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/institutes/inst-1/teachers/teach-1/availability", r.URL.Path)
		w.Write([]byte(`{"data":{"workingHours":{"slots":[{"startTime":"2025-03-01T10:00:00Z","endTime":"2025-03-01T11:00:00Z"}]}}}`))
	})

	slots, err := c.TeacherAvailability(context.Background(), "teach-1", "2025-03-01T00:00:00Z", "2025-03-02T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "2025-03-01T10:00:00Z", slots[0].StartTime)
}

func TestGet_NonTwoHundredIsUpstreamErrorWithPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := c.ListStudents(context.Background())
	require.Error(t, err)

	var ue *upstream.Error
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
	assert.Equal(t, map[string]any{"message": "invalid api key"}, ue.Payload())
}

func TestGet_MalformedBodyIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":`))
	})

	_, err := c.ListStudents(context.Background())
	assert.Error(t, err)
}
