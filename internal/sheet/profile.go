package sheet

import "fmt"

// FieldMapping binds one output field to the sheet labels that may carry its
// value. Labels are tried in order and matched literally, case-sensitively;
// the first label present on the row wins. A row carrying none of them gets
// an explicit null for the field.
type FieldMapping struct {
	Field  string
	Labels []string
}

// Profile is a versioned mapping from one sheet-backed collection to a
// stable output shape. The sheet's column set drifts over time; the profile
// is the contract that keeps the API's shape fixed regardless.
type Profile struct {
	Name       string
	Collection string
	PageSize   int
	Mappings   []FieldMapping
}

// Validate rejects malformed profiles at startup so schema drift in the
// mapping table itself is caught before it turns into silently-null fields.
func (p Profile) Validate() error {
	if p.Name == "" || p.Collection == "" {
		return fmt.Errorf("profile missing name or collection")
	}
	if p.PageSize <= 0 {
		return fmt.Errorf("profile %s: page size must be positive", p.Name)
	}
	seen := make(map[string]bool, len(p.Mappings))
	for _, m := range p.Mappings {
		if m.Field == "" {
			return fmt.Errorf("profile %s: mapping with empty field name", p.Name)
		}
		if seen[m.Field] {
			return fmt.Errorf("profile %s: duplicate field %q", p.Name, m.Field)
		}
		seen[m.Field] = true
		if len(m.Labels) == 0 {
			return fmt.Errorf("profile %s: field %q has no source labels", p.Name, m.Field)
		}
		for _, l := range m.Labels {
			if l == "" {
				return fmt.Errorf("profile %s: field %q has an empty label", p.Name, m.Field)
			}
		}
	}
	return nil
}

// DemoScheduled is the minimal shape served alongside identity-scoped
// session lookups.
var DemoScheduled = Profile{
	Name:       "demo_scheduled_v1",
	Collection: "demo_scheduled",
	PageSize:   5,
	Mappings: []FieldMapping{
		{Field: "autoId", Labels: []string{"Auto ID"}},
		{Field: "student_name", Labels: []string{"Student Name (from Student ID)"}},
		{Field: "teacher_name", Labels: []string{"Demo Teacher Name"}},
		{Field: "meeting_link", Labels: []string{"Meeting link"}},
	},
}

// MeetingLinks is the full shape behind the unfiltered listing. The link
// field prefers the repaired "New link" column over the original "Link",
// which is still exposed separately for auditing.
var MeetingLinks = Profile{
	Name:       "meeting_links_v1",
	Collection: "meeting_links",
	PageSize:   20,
	Mappings: []FieldMapping{
		// student group
		{Field: "student_name", Labels: []string{"Student Name (from Student ID)"}},
		{Field: "student_contact", Labels: []string{"Student Contact Number (from Student ID)"}},
		{Field: "student_email", Labels: []string{"Student Email (from Student ID)"}},
		{Field: "student_grade", Labels: []string{"Grade (from Student ID)"}},
		{Field: "student_curriculum", Labels: []string{"Curriculum (from Student ID)"}},
		{Field: "student_country", Labels: []string{"Country (from Student ID)"}},
		// guardian group
		{Field: "guardian_name", Labels: []string{"Parent Name"}},
		{Field: "guardian_contact", Labels: []string{"Parent Contact Number"}},
		{Field: "guardian_email", Labels: []string{"Parent Email"}},
		// teacher group
		{Field: "teacher_name", Labels: []string{"Demo Teacher Name"}},
		{Field: "teacher_email", Labels: []string{"Demo Teacher Email"}},
		{Field: "subject", Labels: []string{"Subject"}},
		// demo group
		{Field: "demo_date", Labels: []string{"Demo Date"}},
		{Field: "demo_time", Labels: []string{"Demo Time"}},
		{Field: "demo_timezone", Labels: []string{"Time Zone"}},
		{Field: "meeting_link", Labels: []string{"New link", "Link"}},
		{Field: "original_link", Labels: []string{"Link"}},
		{Field: "recording_link", Labels: []string{"Recording Link"}},
		// status group
		{Field: "demo_status", Labels: []string{"Demo Status"}},
		{Field: "payment_status", Labels: []string{"Payment Status"}},
		{Field: "enrollment_status", Labels: []string{"Enrollment Status"}},
		{Field: "rescheduled", Labels: []string{"Rescheduled?"}},
		{Field: "cancellation_reason", Labels: []string{"Cancellation Reason"}},
		// communication log group
		{Field: "first_call_status", Labels: []string{"1st Call Status"}},
		{Field: "second_call_status", Labels: []string{"2nd Call Status"}},
		{Field: "whatsapp_status", Labels: []string{"WhatsApp Status"}},
		{Field: "email_status", Labels: []string{"Email Status"}},
		{Field: "follow_up_date", Labels: []string{"Follow Up Date"}},
		{Field: "counsellor_notes", Labels: []string{"Counsellor Notes"}},
		{Field: "sales_owner", Labels: []string{"Sales Owner"}},
	},
}
