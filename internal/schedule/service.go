package schedule

import (
	"context"
	"fmt"
	"time"
)

// IDMode says how a raw identifier from the request should be interpreted
// when filtering sessions. Upstream callers are not consistent about whether
// "teacher_id" carries a user id or a class id, so both stay supported and a
// deployment picks one via config.
type IDMode string

const (
	IDModeUser  IDMode = "user"
	IDModeClass IDMode = "class"
)

// ParseIDMode validates a configured mode string.
func ParseIDMode(s string) (IDMode, error) {
	switch IDMode(s) {
	case IDModeUser, IDModeClass:
		return IDMode(s), nil
	}
	return "", fmt.Errorf("unknown schedule id mode %q (want user or class)", s)
}

// SessionSource is the slice of the repository the query service needs.
type SessionSource interface {
	UpcomingSessionsByUser(ctx context.Context, userID string, now time.Time, limit int) ([]Session, error)
	UpcomingSessionsByClass(ctx context.Context, classID string, now time.Time, limit int) ([]Session, error)
	RecentSessions(ctx context.Context, limit, offset int) ([]Session, error)
}

const (
	upcomingPageSize = 5
	recentPageSize   = 20
)

// Service answers "what's scheduled next" queries over the session mirror.
type Service struct {
	src   SessionSource
	nowFn func() time.Time
}

// NewService creates a query service over src.
func NewService(src SessionSource) *Service {
	return &Service{src: src, nowFn: func() time.Time { return time.Now().UTC() }}
}

// Upcoming returns the next five UPCOMING sessions for the identifier,
// soonest first. The cutoff is captured once here so every row in one
// response is judged against the same instant. An empty result is a valid
// answer, not an error.
func (s *Service) Upcoming(ctx context.Context, mode IDMode, id string) ([]Session, error) {
	now := s.nowFn()
	switch mode {
	case IDModeClass:
		return s.src.UpcomingSessionsByClass(ctx, id, now, upcomingPageSize)
	default:
		return s.src.UpcomingSessionsByUser(ctx, id, now, upcomingPageSize)
	}
}

// Recent lists sessions without any identity filter, most recently created
// first, in pages of twenty. There is no meaningful "soonest" without an
// identity, so creation order is the fallback.
func (s *Service) Recent(ctx context.Context, page int) ([]Session, error) {
	if page < 1 {
		page = 1
	}
	return s.src.RecentSessions(ctx, recentPageSize, (page-1)*recentPageSize)
}

// RecentPageSize is exposed for response envelopes that echo the limit.
func RecentPageSize() int { return recentPageSize }
