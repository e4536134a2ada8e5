package airtable

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
	c := New("base-1", "tbl-1", "key-1", 2*time.Second)
	c.BaseURL = srv.URL
	return c
}

func TestSearchByPhone_BuildsExactMatchFormula(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"records":[{"id":"rec1","fields":{"Student Name (from Student ID)":"Asha"},"createdTime":"2025-03-01T10:00:00.000Z"}]}`))
	})

	records, err := c.SearchByPhone(context.Background(), "+15550100")
	require.NoError(t, err)

	assert.Equal(t, "/base-1/tbl-1", gotPath)
	assert.Equal(t, "Bearer key-1", gotAuth)
	assert.Equal(t, []string{"{Student Contact Number (from Student ID)} = '+15550100'"}, gotQuery["filterByFormula"])
	assert.Equal(t, []string{"5"}, gotQuery["maxRecords"])

	require.Len(t, records, 1)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "Asha", records[0].Fields["Student Name (from Student ID)"])
	assert.Equal(t, "2025-03-01T10:00:00.000Z", records[0].CreatedTime)
}

func TestSearchByPhone_EscapesQuotes(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"records":[]}`))
	})

	_, err := c.SearchByPhone(context.Background(), "5550100' = ''")
	require.NoError(t, err)
	assert.Equal(t, []string{`{Student Contact Number (from Student ID)} = '5550100\' = \'\''`}, gotQuery["filterByFormula"])
}

func TestSearchByPhone_NonTwoHundredEchoesPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"type":"INVALID_FILTER_BY_FORMULA"}}`))
	})

	_, err := c.SearchByPhone(context.Background(), "+15550100")
	require.Error(t, err)

	var ue *upstream.Error
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnprocessableEntity, ue.StatusCode)
	assert.Equal(t, "airtable", ue.Target)
}

func TestSearchByPhone_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records":[]}`))
	})

	records, err := c.SearchByPhone(context.Background(), "+15550199")
	require.NoError(t, err)
	assert.Empty(t, records)
}
