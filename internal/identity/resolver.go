package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/schedule"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/store"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/wise"
)

// ErrNotFound means no identity matched the supplied phone number. A record
// that exists but fails the relation or acceptance predicates is reported
// the same way; "found but inactive" is never surfaced.
var ErrNotFound = errors.New("identity not found")

// Identity is a resolved teacher or student.
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// TeacherSource lists teacher-relation records from the operational mirror.
type TeacherSource interface {
	Teachers(ctx context.Context) ([]schedule.User, error)
}

// RosterSource lists the platform's accepted students in one batch call.
type RosterSource interface {
	ListStudents(ctx context.Context) ([]wise.Student, error)
}

const rosterCacheKey = "sagepilot:wise:roster"

// Resolver turns a phone number into a concrete identity. Matching is exact
// string equality after stripping all whitespace from both sides; nothing
// else (country codes, punctuation, leading zeros) is reconciled.
type Resolver struct {
	teachers TeacherSource
	roster   RosterSource
	cache    *store.Redis
	cacheTTL time.Duration
}

// NewResolver creates a resolver. cache may be nil, in which case every
// student resolution refetches the roster.
func NewResolver(teachers TeacherSource, roster RosterSource, cache *store.Redis, cacheTTL time.Duration) *Resolver {
	return &Resolver{teachers: teachers, roster: roster, cache: cache, cacheTTL: cacheTTL}
}

// StripWhitespace removes every whitespace rune from s.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ResolveTeacherByPhone matches phone against teacher records in the
// operational store. A match must hold relation TEACHER and status ACCEPTED
// simultaneously; anything else is not found. Costs one store query.
func (r *Resolver) ResolveTeacherByPhone(ctx context.Context, phone string) (Identity, error) {
	want := StripWhitespace(phone)
	if want == "" {
		return Identity{}, ErrNotFound
	}

	teachers, err := r.teachers.Teachers(ctx)
	if err != nil {
		return Identity{}, err
	}
	for _, t := range teachers {
		if t.Relation != schedule.RelationTeacher || t.Status != schedule.StatusAccepted {
			continue
		}
		if t.PhoneNumber == nil {
			continue
		}
		if StripWhitespace(*t.PhoneNumber) == want {
			id := Identity{ID: t.ID, PhoneNumber: *t.PhoneNumber, Role: schedule.RelationTeacher, Status: t.Status}
			if t.Name != nil {
				id.Name = *t.Name
			}
			return id, nil
		}
	}
	return Identity{}, ErrNotFound
}

// ResolveStudentByPhone matches phone against the platform roster, which is
// fetched in one batch call (cached briefly when redis is available) and
// scanned linearly. The full roster entry is returned because callers need
// the enrollment list for fan-out.
func (r *Resolver) ResolveStudentByPhone(ctx context.Context, phone string) (wise.Student, error) {
	want := StripWhitespace(phone)
	if want == "" {
		return wise.Student{}, ErrNotFound
	}

	students, err := r.rosterStudents(ctx)
	if err != nil {
		return wise.Student{}, err
	}
	for _, s := range students {
		if StripWhitespace(s.UserID.PhoneNumber) == want {
			return s, nil
		}
	}
	return wise.Student{}, ErrNotFound
}

func (r *Resolver) rosterStudents(ctx context.Context) ([]wise.Student, error) {
	if cached := r.cache.GetCached(ctx, rosterCacheKey); cached != "" {
		var students []wise.Student
		if err := json.Unmarshal([]byte(cached), &students); err == nil {
			return students, nil
		}
		log.Printf("roster cache entry malformed, refetching")
	}

	students, err := r.roster.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(students); err == nil {
		r.cache.SetCached(ctx, rosterCacheKey, string(payload), r.cacheTTL)
	}
	return students, nil
}
