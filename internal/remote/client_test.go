package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(nil, "not a url")
	require.Error(t, err)

	c, err := NewClient(nil, "http://localhost:8081/sync/transactions")
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
}

func TestExisting(t *testing.T) {
	var got Request
	var gotRun string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotRun = r.Header.Get(RunHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"id":2,"ZoneName":"زون","KulAmdan":100},{"id":4}]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.Client(), srv.URL)
	require.NoError(t, err)

	txns, err := c.Existing(context.Background(), "run-1", []int64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, TypeGet, got.Type)
	assert.Equal(t, []int64{1, 2, 3}, got.LocalIDs)
	assert.Equal(t, "run-1", gotRun)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(2), txns[0].ID)
	assert.Equal(t, int64(100), txns[0].GrossIncome)
	assert.Equal(t, int64(4), txns[1].ID)
}

func TestExistingSendsEmptyArray(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.Client(), srv.URL)
	require.NoError(t, err)

	_, err = c.Existing(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, raw["localIds"])
}

func TestExistingFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"not found", http.StatusNotFound, ``},
		{"bad body", http.StatusOK, `{"not":"an array"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.Client(), srv.URL)
			require.NoError(t, err)

			_, err = c.Existing(context.Background(), "", []int64{1})
			require.Error(t, err)
			if tt.status != http.StatusOK {
				assert.True(t, IsUnexpectedStatus(err))
			}
		})
	}
}

func TestPush(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"success body", http.StatusOK, `{"success":true}`, false},
		{"empty body", http.StatusNoContent, ``, false},
		{"unreadable body", http.StatusOK, `ok`, false},
		{"explicit failure", http.StatusOK, `{"success":false,"error":"db down"}`, true},
		{"failure without reason", http.StatusOK, `{"success":false}`, true},
		{"bad gateway", http.StatusBadGateway, `{"success":true}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.Client(), srv.URL)
			require.NoError(t, err)

			err = c.Push(context.Background(), "", NewSyncRequest([]Transaction{{ID: 1}}, nil, []int64{9}))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, TypeSync, got.Type)
			assert.Len(t, got.Create, 1)
			assert.Equal(t, []int64{9}, got.Delete)
		})
	}
}

func TestPushTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(nil, url)
	require.NoError(t, err)

	err = c.Push(context.Background(), "", NewSyncRequest(nil, nil, nil))
	require.Error(t, err)
	assert.False(t, IsUnexpectedStatus(err))
}
