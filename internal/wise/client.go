package wise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/metrics"
	"github.com/Tech-SuperSheldon/sagepilot-api/internal/upstream"
)

// Student is one entry of the institute roster. The platform nests the
// actual person under userId.
type Student struct {
	ID          string  `json:"_id"`
	Status      string  `json:"status"`
	InstituteID string  `json:"instituteId"`
	UserID      Person  `json:"userId"`
	Classes     []Class `json:"classes"`
}

// Person carries the identity fields of a roster entry.
type Person struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// Class is an enrollment reference on a student.
type Class struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// TimelineSection is one section of a class content timeline.
type TimelineSection struct {
	Entities []TimelineEntity `json:"entities"`
}

// TimelineEntity is one content item inside a section. Duration and
// MaxMarks are passed through untyped; the platform is not consistent
// about them.
type TimelineEntity struct {
	ID         string `json:"_id"`
	EntityType string `json:"entityType"`
	Status     string `json:"status"`
	Name       string `json:"name"`
	Duration   any    `json:"duration"`
	MaxMarks   any    `json:"maxMarks"`
	CreatedAt  string `json:"createdAt"`
}

// Slot is one availability window of a teacher.
type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Client calls the Wise platform API with fixed institute credentials.
type Client struct {
	BaseURL     string
	InstituteID string
	APIKey      string
	Namespace   string
	AuthHeader  string
	HTTP        *http.Client
}

// New creates a client. The timeout bounds every call including the
// per-class fan-out fetches; context deadlines may shorten it further.
func New(baseURL, instituteID, apiKey, namespace, authHeader string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:     baseURL,
		InstituteID: instituteID,
		APIKey:      apiKey,
		Namespace:   namespace,
		AuthHeader:  authHeader,
		HTTP:        &http.Client{Timeout: timeout},
	}
}

// get performs an authenticated GET and decodes the 2xx body into out.
// Non-2xx replies come back as *upstream.Error with the raw payload.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.AuthHeader)
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("x-wise-namespace", c.Namespace)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SagePilot/1.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("wise", "error").Inc()
		return fmt.Errorf("wise request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("wise", "error").Inc()
		return fmt.Errorf("wise response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues("wise", "error").Inc()
		return &upstream.Error{Target: "wise", StatusCode: resp.StatusCode, Body: body}
	}
	metrics.UpstreamRequests.WithLabelValues("wise", "ok").Inc()
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("wise response decode failed: %w", err)
	}
	return nil
}

// ListStudents fetches the full accepted-student roster of the institute in
// one call. Callers scan it; there is no per-student lookup on the platform.
func (c *Client) ListStudents(ctx context.Context) ([]Student, error) {
	var out struct {
		Data struct {
			Students []Student `json:"students"`
		} `json:"data"`
	}
	q := url.Values{"status": {"ACCEPTED"}}
	if err := c.get(ctx, "/institutes/"+c.InstituteID+"/students", q, &out); err != nil {
		return nil, err
	}
	return out.Data.Students, nil
}

// ContentTimeline fetches a class's content timeline, including sections
// hidden behind sequential learning locks.
func (c *Client) ContentTimeline(ctx context.Context, classID string) ([]TimelineSection, error) {
	var out struct {
		Data struct {
			Timeline []TimelineSection `json:"timeline"`
		} `json:"data"`
	}
	q := url.Values{"showSequentialLearningDisabledSections": {"true"}}
	if err := c.get(ctx, "/user/classes/"+classID+"/contentTimeline", q, &out); err != nil {
		return nil, err
	}
	return out.Data.Timeline, nil
}

// FutureSessions fetches the institute's next page of FUTURE sessions. The
// payload is passed through untouched; only the count is derived here.
func (c *Client) FutureSessions(ctx context.Context) ([]json.RawMessage, error) {
	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	q := url.Values{
		"paginateBy":  {"COUNT"},
		"page_number": {"1"},
		"page_size":   {"5"},
		"status":      {"FUTURE"},
	}
	if err := c.get(ctx, "/institutes/"+c.InstituteID+"/sessions", q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// TeacherAvailability fetches a teacher's working-hour slots for a window.
func (c *Client) TeacherAvailability(ctx context.Context, teacherID, startTime, endTime string) ([]Slot, error) {
	var out struct {
		Data struct {
			WorkingHours struct {
				Slots []Slot `json:"slots"`
			} `json:"workingHours"`
		} `json:"data"`
	}
	q := url.Values{"startTime": {startTime}, "endTime": {endTime}}
	path := "/institutes/" + c.InstituteID + "/teachers/" + teacherID + "/availability"
	if err := c.get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out.Data.WorkingHours.Slots, nil
}
