package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/airtable"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/homework"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/identity"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/schedule"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/sheet"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/upstream"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/wise"
)

// The handler depends on narrow interfaces rather than the concrete
// repository and clients so each endpoint can be unit tested with fakes.

// SessionQueries answers session lookups.
type SessionQueries interface {
	Upcoming(ctx context.Context, mode schedule.IDMode, id string) ([]schedule.Session, error)
	Recent(ctx context.Context, page int) ([]schedule.Session, error)
}

// SheetSource pages raw sheet rows of one collection.
type SheetSource interface {
	SheetRows(ctx context.Context, collection string, limit, offset int) ([]sheet.Row, error)
}

// StudentStore finds student identity records by exact phone match.
type StudentStore interface {
	FindStudentsByPhone(ctx context.Context, phone string, limit, offset int) ([]schedule.User, error)
}

// Resolver resolves phone numbers into identities.
type Resolver interface {
	ResolveTeacherByPhone(ctx context.Context, phone string) (identity.Identity, error)
	ResolveStudentByPhone(ctx context.Context, phone string) (wise.Student, error)
}

// TestDiscovery fans out over a student's classes for active tests.
type TestDiscovery interface {
	ActiveTests(ctx context.Context, classes []wise.Class) []homework.TestLink
}

// Platform is the slice of the Wise client the proxy endpoints need.
type Platform interface {
	FutureSessions(ctx context.Context) ([]json.RawMessage, error)
	TeacherAvailability(ctx context.Context, teacherID, startTime, endTime string) ([]wise.Slot, error)
}

// SheetSearch queries the spreadsheet provider directly.
type SheetSearch interface {
	SearchByPhone(ctx context.Context, phone string) ([]airtable.Record, error)
}

// Handler holds the wired dependencies for all endpoints.
type Handler struct {
	sessions  SessionQueries
	sheets    SheetSource
	students  StudentStore
	resolver  Resolver
	discovery TestDiscovery
	platform  Platform
	search    SheetSearch
	idMode    schedule.IDMode
}

// New creates a handler.
func New(sessions SessionQueries, sheets SheetSource, students StudentStore, resolver Resolver, discovery TestDiscovery, platform Platform, search SheetSearch, idMode schedule.IDMode) *Handler {
	return &Handler{
		sessions:  sessions,
		sheets:    sheets,
		students:  students,
		resolver:  resolver,
		discovery: discovery,
		platform:  platform,
		search:    search,
		idMode:    idMode,
	}
}

const noUpcomingMessage = "No upcoming sessions found"

// scheduleBundle runs the session query and the sheet page that every
// schedule endpoint returns together.
func (h *Handler) scheduleBundle(c *gin.Context, mode schedule.IDMode, id string, page int, profile sheet.Profile) ([]schedule.Session, []map[string]any, bool) {
	ctx := c.Request.Context()

	sessions, err := h.sessions.Upcoming(ctx, mode, id)
	if err != nil {
		upstreamFailure(c, "Failed to fetch schedules", err)
		return nil, nil, false
	}
	rows, err := h.sheets.SheetRows(ctx, profile.Collection, profile.PageSize, sheet.Offset(page, profile.PageSize))
	if err != nil {
		upstreamFailure(c, "Failed to fetch schedules", err)
		return nil, nil, false
	}
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	return sessions, sheet.NormalizeAll(rows, profile), true
}

// AllSchedules serves GET /api/all-schedules: next sessions for a raw
// identifier plus a page of demo_scheduled rows. Whether the identifier
// filters on the user or the class column is a deployment setting.
func (h *Handler) AllSchedules(c *gin.Context) {
	teacherID := c.Query("teacher_id")
	if teacherID == "" {
		badRequest(c, "teacher_id is required")
		return
	}
	page := sheet.ParsePage(c.Query("page"))

	sessions, demoScheduled, ok := h.scheduleBundle(c, h.idMode, teacherID, page, sheet.DemoScheduled)
	if !ok {
		return
	}

	resp := gin.H{
		"success":    true,
		"teacher_id": teacherID,
		"counts": gin.H{
			"sessions":       len(sessions),
			"demo_scheduled": len(demoScheduled),
		},
		"sessions":       sessions,
		"demo_scheduled": demoScheduled,
	}
	if len(sessions) == 0 {
		resp["message"] = noUpcomingMessage
	}
	c.JSON(http.StatusOK, resp)
}

// SchedulesByPhone serves POST /api/schedules/by-phone: resolves a teacher
// by phone, then returns the same bundle as AllSchedules.
func (h *Handler) SchedulesByPhone(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		Page        any    `json:"page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PhoneNumber) == "" {
		badRequest(c, "phoneNumber is required")
		return
	}

	teacher, err := h.resolver.ResolveTeacherByPhone(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			notFound(c, "Teacher not found")
			return
		}
		upstreamFailure(c, "Failed to resolve teacher", err)
		return
	}

	sessions, demoScheduled, ok := h.scheduleBundle(c, schedule.IDModeUser, teacher.ID, pageFromBody(req.Page), sheet.DemoScheduled)
	if !ok {
		return
	}

	resp := gin.H{
		"success": true,
		"teacher": gin.H{
			"id":          teacher.ID,
			"name":        teacher.Name,
			"phoneNumber": teacher.PhoneNumber,
		},
		"counts": gin.H{
			"sessions":       len(sessions),
			"demo_scheduled": len(demoScheduled),
		},
		"sessions":       sessions,
		"demo_scheduled": demoScheduled,
	}
	if len(sessions) == 0 {
		resp["message"] = noUpcomingMessage
	}
	c.JSON(http.StatusOK, resp)
}

// ListSchedules serves GET /api/schedules: no identity, sessions by newest
// creation, plus the full meeting_links sheet page. The sheet key stays
// demo_scheduled on the wire; the front end predates the collection split.
func (h *Handler) ListSchedules(c *gin.Context) {
	ctx := c.Request.Context()
	page := sheet.ParsePage(c.Query("page"))

	sessions, err := h.sessions.Recent(ctx, page)
	if err != nil {
		upstreamFailure(c, "Failed to fetch schedules", err)
		return
	}
	profile := sheet.MeetingLinks
	rows, err := h.sheets.SheetRows(ctx, profile.Collection, profile.PageSize, sheet.Offset(page, profile.PageSize))
	if err != nil {
		upstreamFailure(c, "Failed to fetch schedules", err)
		return
	}
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	records := sheet.NormalizeAll(rows, profile)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"page":    page,
		"limit":   schedule.RecentPageSize(),
		"counts": gin.H{
			"sessions":       len(sessions),
			"demo_scheduled": len(records),
		},
		"sessions":       sessions,
		"demo_scheduled": records,
	})
}

// StudentsByPhone serves POST /api/students/by-phone: exact phone match
// against the mirrored identity store.
func (h *Handler) StudentsByPhone(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
		Page  any    `json:"page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		badRequest(c, "phone is required")
		return
	}

	const limit = 5
	offset := sheet.Offset(pageFromBody(req.Page), limit)
	users, err := h.students.FindStudentsByPhone(c.Request.Context(), req.Phone, limit, offset)
	if err != nil {
		upstreamFailure(c, "Failed to fetch student", err)
		return
	}

	students := make([]gin.H, 0, len(users))
	for _, u := range users {
		students = append(students, gin.H{
			"studentId":   u.ID,
			"name":        u.Name,
			"phoneNumber": deref(u.PhoneNumber),
			"email":       u.Email,
			"countryCode": countryCode(deref(u.PhoneNumber)),
			"instituteId": u.InstituteID,
			"status":      u.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(students),
		"students": students,
	})
}

// Availability serves GET /api/availability: proxies the platform's
// availability window for a teacher, trimmed to the first five slots.
// Non-2xx platform replies pass through with their original status.
func (h *Handler) Availability(c *gin.Context) {
	teacherID := c.Query("teacherId")
	startTime := c.Query("startTime")
	endTime := c.Query("endTime")
	if teacherID == "" || startTime == "" || endTime == "" {
		badRequest(c, "teacherId, startTime and endTime are required")
		return
	}

	slots, err := h.platform.TeacherAvailability(c.Request.Context(), teacherID, startTime, endTime)
	if err != nil {
		var ue *upstream.Error
		if errors.As(err, &ue) {
			c.JSON(ue.StatusCode, ue.Payload())
			return
		}
		upstreamFailure(c, "Failed to fetch availability", err)
		return
	}

	if len(slots) > 5 {
		slots = slots[:5]
	}
	c.JSON(http.StatusOK, gin.H{
		"teacher_id":      teacherID,
		"available_slots": slots,
	})
}

// HomeworkByPhone serves POST /api/homework/by-phone: resolves a student
// from the platform roster, then fans out over their classes for active
// tests.
func (h *Handler) HomeworkByPhone(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		badRequest(c, "phone is required")
		return
	}

	student, err := h.resolver.ResolveStudentByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			notFound(c, "Student not found")
			return
		}
		upstreamFailure(c, "Failed to resolve student", err)
		return
	}

	tests := h.discovery.ActiveTests(c.Request.Context(), student.Classes)
	if tests == nil {
		tests = []homework.TestLink{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"student": gin.H{
			"id":    student.ID,
			"name":  student.UserID.Name,
			"phone": student.UserID.PhoneNumber,
		},
		"count": len(tests),
		"tests": tests,
	})
}

// UpcomingSessions serves GET /api/upcoming-sessions: the platform's next
// five FUTURE sessions, passed through.
func (h *Handler) UpcomingSessions(c *gin.Context) {
	sessions, err := h.platform.FutureSessions(c.Request.Context())
	if err != nil {
		upstreamFailure(c, "Failed to fetch upcoming sessions", err)
		return
	}
	if sessions == nil {
		sessions = []json.RawMessage{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// AirtableSearch serves POST /api/airtable-students/search: exact phone
// match against the sheet via the provider's own API.
func (h *Handler) AirtableSearch(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		badRequest(c, "phone is required")
		return
	}

	records, err := h.search.SearchByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		upstreamFailure(c, "Failed to search Airtable", err)
		return
	}
	if records == nil {
		records = []airtable.Record{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(records),
		"students": records,
	})
}

// pageFromBody reads a page value that clients send as either a number or
// a string.
func pageFromBody(raw any) int {
	switch v := raw.(type) {
	case float64:
		if v >= 1 {
			return int(v)
		}
	case string:
		return sheet.ParsePage(v)
	}
	return 1
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// countryCode extracts the first two digits of an international phone
// number, or nil when the number has no leading plus.
func countryCode(phone string) any {
	if !strings.HasPrefix(phone, "+") {
		return nil
	}
	digits := make([]rune, 0, 2)
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == 2 {
				break
			}
		}
	}
	if len(digits) == 0 {
		return nil
	}
	return string(digits)
}
