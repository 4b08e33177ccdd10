package bookprovider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		check   func(t *testing.T, err error, out payload)
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"name":"dune"}`))
			},
			check: func(t *testing.T, err error, out payload) {
				require.NoError(t, err)
				assert.Equal(t, "dune", out.Name)
			},
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			check: func(t *testing.T, err error, _ payload) {
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
			},
		},
		{
			name: "malformed",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"name":`))
			},
			check: func(t *testing.T, err error, _ payload) {
				assert.ErrorIs(t, err, ErrMalformed)
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{}`))
			},
			timeout: 20 * time.Millisecond,
			check: func(t *testing.T, err error, _ payload) {
				assert.ErrorIs(t, err, ErrTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := &http.Client{Timeout: tt.timeout}
			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)

			var out payload
			err = Do(context.Background(), client, "test", req, &out)
			tt.check(t, err, out)
		})
	}
}

func TestDo_Unavailable(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)

	var out map[string]any
	err = Do(context.Background(), http.DefaultClient, "test", req, &out)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"pdf", "epub", "mobi", "txt"} {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("docx"))
	assert.False(t, ValidFormat(""))
}
