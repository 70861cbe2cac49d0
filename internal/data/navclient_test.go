package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNAVClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/funds/000001/nav", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"columns":["date","netValue"],"rows":[["2020-01-01",1.0],["2020-01-02",1.1]]}`))
	}))
	defer srv.Close()

	c := NewNAVClient("secret", srv.URL, 0, nil)
	tbl, err := c.Fetch(context.Background(), "000001")
	require.NoError(t, err)
	assert.Equal(t, "000001", tbl.InstrumentID)
	assert.Len(t, tbl.Rows, 2)

	s, err := LoadSeries(context.Background(), c, "000001")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestNAVClientErrors(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusNotFound, "UNKNOWN_INSTRUMENT"},
		{http.StatusUnauthorized, "UNAUTHORIZED"},
		{http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{http.StatusInternalServerError, "API_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := NewNAVClient("", srv.URL, 10, nil).Fetch(context.Background(), "X")
			var navErr *NAVError
			require.True(t, errors.As(err, &navErr))
			assert.Equal(t, tc.code, navErr.Code)
			assert.Equal(t, tc.status, navErr.StatusCode)
		})
	}
}

func TestNAVClientMissingBaseURL(t *testing.T) {
	_, err := NewNAVClient("", "", 0, nil).Fetch(context.Background(), "X")
	var navErr *NAVError
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, "MISSING_BASE_URL", navErr.Code)
}

func TestNAVClientCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewNAVClient("", "http://127.0.0.1:1", 1, nil).Fetch(ctx, "X")
	assert.Error(t, err)
}

func TestNAVClientRejectsPathLikeIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	c := NewNAVClient("secret", srv.URL, 0, nil)
	for _, id := range []string{"", "..", "../admin"} {
		_, err := c.Fetch(context.Background(), id)
		require.Error(t, err, id)
	}
}
