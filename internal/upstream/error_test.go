package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayload_JSONBodyDecodes(t *testing.T) {
	e := &Error{Target: "wise", StatusCode: 502, Body: []byte(`{"message":"bad gateway","code":52}`)}
	assert.Equal(t, map[string]any{"message": "bad gateway", "code": float64(52)}, e.Payload())
}

func TestPayload_TextBodyKeptRaw(t *testing.T) {
	e := &Error{Target: "airtable", StatusCode: 500, Body: []byte("<html>oops</html>")}
	assert.Equal(t, "<html>oops</html>", e.Payload())
}

func TestError_MessageNamesTargetAndStatus(t *testing.T) {
	e := &Error{Target: "wise", StatusCode: 403, Body: []byte(`denied`)}
	assert.Equal(t, "wise returned 403: denied", e.Error())
}
