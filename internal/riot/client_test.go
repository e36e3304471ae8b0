package riot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingForRegion(t *testing.T) {
	tests := []struct {
		name   string
		region string
		want   string
	}{
		{name: "na platform", region: "na1", want: "americas"},
		{name: "euw platform", region: "euw1", want: "europe"},
		{name: "kr platform", region: "kr", want: "asia"},
		{name: "already routing value", region: "europe", want: "europe"},
		{name: "uppercase platform", region: "EUW1", want: "europe"},
		{name: "unknown defaults to americas", region: "xx9", want: "americas"},
		{name: "empty defaults to americas", region: "", want: "americas"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RoutingForRegion(tc.region))
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "na1",
		WithBaseURL(srv.URL),
		WithRetry(3, time.Millisecond),
	)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	return c
}

func TestMatchRetriesOn429(t *testing.T) {
	var calls int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Riot-Token"))

		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"metadata":{"matchId":"NA1_100"}}`))
	})

	body, err := c.Match(context.Background(), "NA1_100")
	require.NoError(t, err)
	assert.Contains(t, string(body), "NA1_100")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestMatchRetryExhaustion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Match(context.Background(), "NA1_100")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestMatchFailsImmediatelyOnOtherStatus(t *testing.T) {
	var calls int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Match(context.Background(), "NA1_100")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "non-429 must not be retried")
}

func TestErrorsNeverContainAPIKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Match(context.Background(), "NA1_100")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestRetryAfterHeaderWins(t *testing.T) {
	var calls int32
	var slept []time.Duration

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	})
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := c.MatchIDs(context.Background(), "puuid-1", 0, 100)
	require.NoError(t, err)
	require.Len(t, slept, 1)
	assert.Equal(t, 7*time.Second, slept[0])
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	c := NewClient("k", "na1", WithRetry(10, 100*time.Millisecond))

	assert.Equal(t, 100*time.Millisecond, c.backoff(0, 0))
	assert.Equal(t, 200*time.Millisecond, c.backoff(1, 0))
	assert.Equal(t, 400*time.Millisecond, c.backoff(2, 0))
	assert.Equal(t, 60*time.Second, c.backoff(30, 0), "must cap at 60s")
	assert.Equal(t, 60*time.Second, c.backoff(0, 2*time.Minute), "hint is capped too")
}

func TestSleepAbortsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccountByRiotID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/riot/account/v1/accounts/by-riot-id/"))
		json.NewEncoder(w).Encode(map[string]string{"puuid": "puuid-42"})
	})

	puuid, err := c.AccountByRiotID(context.Background(), "Faker", "KR1")
	require.NoError(t, err)
	assert.Equal(t, "puuid-42", puuid)
}

func TestAccountByRiotIDEmptyPUUID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.AccountByRiotID(context.Background(), "ghost", "na")
	require.Error(t, err)
}

func TestMatchIDsPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ranked", r.URL.Query().Get("type"))
		assert.Equal(t, "100", r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode([]string{"NA1_1", "NA1_2"})
	})

	ids, err := c.MatchIDs(context.Background(), "puuid-1", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"NA1_1", "NA1_2"}, ids)
}
