package schedule

import "time"

// Session is a read-only view of one scheduled meeting mirrored from the
// operational system.
type Session struct {
	ID                 string     `json:"id"`
	ClassID            string     `json:"classId"`
	UserID             string     `json:"userId"`
	MeetingStatus      string     `json:"meetingStatus"`
	ScheduledStartTime *time.Time `json:"scheduledStartTime"`
	MeetingLink        *string    `json:"meetingLink"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// User is an identity record from the mirrored users collection. Relation
// distinguishes teachers from students; status tracks institute acceptance.
type User struct {
	ID          string  `json:"id"`
	Relation    string  `json:"relation"`
	Status      string  `json:"status"`
	InstituteID string  `json:"instituteId"`
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
}

const (
	RelationTeacher = "TEACHER"
	RelationStudent = "STUDENT"

	StatusAccepted = "ACCEPTED"

	MeetingUpcoming = "UPCOMING"
)
