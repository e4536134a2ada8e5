package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/sheet"
)

// Repository reads the mirrored operational collections from Postgres.
// It never writes; the mirror is maintained by external sync jobs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, class_id, user_id, meeting_status, scheduled_start_time, meeting_link, created_at`

func scanSessions(rows *sql.Rows) ([]Session, error) {
	var res []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ClassID, &s.UserID, &s.MeetingStatus, &s.ScheduledStartTime, &s.MeetingLink, &s.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpcomingSessionsByUser returns the next limit UPCOMING sessions for a user,
// soonest first. The caller supplies now so one request sees one consistent
// cutoff across queries.
func (r *Repository) UpcomingSessionsByUser(ctx context.Context, userID string, now time.Time, limit int) ([]Session, error) {
	return r.upcoming(ctx, "user_id", userID, now, limit)
}

// UpcomingSessionsByClass is UpcomingSessionsByUser filtered on the class column.
func (r *Repository) UpcomingSessionsByClass(ctx context.Context, classID string, now time.Time, limit int) ([]Session, error) {
	return r.upcoming(ctx, "class_id", classID, now, limit)
}

func (r *Repository) upcoming(ctx context.Context, column, id string, now time.Time, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE `+column+` = $1 AND meeting_status = $2 AND scheduled_start_time >= $3
		ORDER BY scheduled_start_time ASC
		LIMIT $4
	`, id, MeetingUpcoming, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// RecentSessions lists sessions most recently created first, for the
// unfiltered browse mode where no identity narrows the result.
func (r *Repository) RecentSessions(ctx context.Context, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

// Teachers returns every teacher-relation record, any status. The resolver
// scans the result for a phone match and applies the acceptance predicate,
// so resolution costs exactly one query.
func (r *Repository) Teachers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, relation, status, institute_id, name, phone_number, email
		FROM users
		WHERE relation = $1
	`, RelationTeacher)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// FindStudentsByPhone returns student records whose stored phone number
// equals phone exactly, paged.
func (r *Repository) FindStudentsByPhone(ctx context.Context, phone string, limit, offset int) ([]User, error) {
	if limit <= 0 {
		limit = 5
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, relation, status, institute_id, name, phone_number, email
		FROM users
		WHERE relation = $1 AND phone_number = $2
		LIMIT $3 OFFSET $4
	`, RelationStudent, phone, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	var res []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Relation, &u.Status, &u.InstituteID, &u.Name, &u.PhoneNumber, &u.Email); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// SheetRows pages one mirrored sheet collection newest first. Fields is
// stored as JSONB and decoded into the raw label map.
func (r *Repository) SheetRows(ctx context.Context, collection string, limit, offset int) ([]sheet.Row, error) {
	if limit <= 0 {
		limit = 5
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, airtable_id, fields, created_time
		FROM sheet_rows
		WHERE collection = $1
		ORDER BY created_time DESC
		LIMIT $2 OFFSET $3
	`, collection, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []sheet.Row
	for rows.Next() {
		var row sheet.Row
		var raw []byte
		if err := rows.Scan(&row.ID, &row.AirtableID, &raw, &row.CreatedTime); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &row.Fields); err != nil {
				return nil, errors.New("sheet row " + row.ID + ": malformed fields payload")
			}
		}
		if row.Fields == nil {
			row.Fields = map[string]any{}
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
