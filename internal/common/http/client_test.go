package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Zoho-oauthtoken abc", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(b))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(time.Second).WithHeader("Authorization", "Zoho-oauthtoken abc")
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]int{"a": 1})
	require.NoError(t, err)
	defer Drain(resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestPostJSON_UnmarshalableBody(t *testing.T) {
	_, err := NewClient(0).PostJSON(context.Background(), "http://localhost", make(chan int))
	assert.ErrorContains(t, err, "marshal request")
}

func TestDrain_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() { Drain(nil) })
}
