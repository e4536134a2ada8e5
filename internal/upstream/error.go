package upstream

import (
	"encoding/json"
	"fmt"
)

// Error is a non-2xx reply from an upstream API. The raw body is kept so
// callers can echo the upstream payload verbatim in their own error
// responses, which is the diagnostic contract the front end relies on.
type Error struct {
	Target     string
	StatusCode int
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Target, e.StatusCode, string(e.Body))
}

// Payload returns the upstream body decoded as JSON when possible, or the
// raw text otherwise.
func (e *Error) Payload() any {
	var decoded any
	if err := json.Unmarshal(e.Body, &decoded); err == nil {
		return decoded
	}
	return string(e.Body)
}
