package jamf

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"change-monitor/core/fetch"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.URL = srv.URL
	if cfg.Username == "" {
		cfg.Username, cfg.Password = "auditor", "secret"
	}
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return c
}

func writeToken(w http.ResponseWriter, token string, expires time.Time) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"token": token, "expires": expires.UTC().Format(time.RFC3339)})
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}

func TestClient_Classic(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "auditor", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/JSSResource/computergroups/id/12", r.URL.Path)
		_, _ = w.Write([]byte(`{"computer_group":{"id":12,"name":"All Managed","size":12345678901234}}`))
	}), Config{})

	body, err := c.Get(context.Background(), fetch.Request{API: fetch.Classic, Path: "computergroups/id/12"})
	require.NoError(t, err)

	group := body.(map[string]any)["computer_group"].(map[string]any)
	assert.Equal(t, json.Number("12"), group["id"])
	assert.Equal(t, json.Number("12345678901234"), group["size"])
}

func TestClient_EscapedPath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/JSSResource/scripts/name/a%2Fb%20c", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{}`))
	}), Config{})

	_, err := c.Get(context.Background(), fetch.Request{API: fetch.Classic, Path: "scripts/name/a%2Fb%20c"})
	require.NoError(t, err)
}

func TestClient_ProTokenSharedAcrossRunners(t *testing.T) {
	var tokenCalls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/token":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _, ok := r.BasicAuth()
			assert.True(t, ok)
			tokenCalls.Add(1)
			time.Sleep(20 * time.Millisecond)
			writeToken(w, "tok-1", time.Now().Add(time.Hour))
		case "/api/v1/scripts":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "0", r.URL.Query().Get("page"))
			assert.Equal(t, []string{"GENERAL", "HARDWARE"}, r.URL.Query()["section"])
			_, _ = w.Write([]byte(`{"totalCount":1,"results":[{"id":"1"}]}`))
		default:
			http.NotFound(w, r)
		}
	}), Config{})

	params := url.Values{"page": {"0"}, "section": {"GENERAL", "HARDWARE"}}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), fetch.Request{API: fetch.Pro, Path: "v1/scripts", Params: params})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestClient_ProRenewsRejectedToken(t *testing.T) {
	var tokenCalls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/token":
			n := tokenCalls.Add(1)
			if n == 1 {
				writeToken(w, "revoked", time.Now().Add(time.Hour))
				return
			}
			writeToken(w, "fresh", time.Now().Add(time.Hour))
		case "/api/v1/categories":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"totalCount":0,"results":[]}`))
		}
	}), Config{})

	_, err := c.Get(context.Background(), fetch.Request{API: fetch.Pro, Path: "v1/categories"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), tokenCalls.Load())
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The server has not found anything matching the request URI", http.StatusNotFound)
	}), Config{})

	_, err := c.Get(context.Background(), fetch.Request{API: fetch.Classic, Path: "scripts/id/9"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Message, "not found anything")
	assert.Equal(t, http.StatusNotFound, fetch.StatusOf(err))
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), Config{BreakerFailures: 2, BreakerCooldownSeconds: 60})

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), fetch.Request{API: fetch.Classic, Path: "categories"})
		assert.Equal(t, http.StatusBadGateway, fetch.StatusOf(err))
	}

	_, err := c.Get(context.Background(), fetch.Request{API: fetch.Classic, Path: "categories"})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), Config{BreakerFailures: 1})

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), fetch.Request{API: fetch.Classic, Path: "scripts/id/1"})
		assert.Equal(t, http.StatusNotFound, fetch.StatusOf(err))
	}
}

func TestClient_KeepAliveAndClose(t *testing.T) {
	var invalidated atomic.Bool
	var issued atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/token":
			issued.Add(1)
			writeToken(w, "first", time.Now().Add(30*time.Second))
		case "/api/v1/auth/keep-alive":
			assert.Equal(t, "Bearer first", r.Header.Get("Authorization"))
			writeToken(w, "second", time.Now().Add(time.Hour))
		case "/api/v1/auth/invalidate-token":
			assert.Equal(t, "Bearer second", r.Header.Get("Authorization"))
			invalidated.Store(true)
			w.WriteHeader(http.StatusNoContent)
		}
	}), Config{})

	token, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	// "first" expires within the renewal window, so it is kept alive.
	token, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	token, err = c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", token)
	assert.Equal(t, int32(1), issued.Load())

	require.NoError(t, c.Close(context.Background()))
	assert.True(t, invalidated.Load())
	// Closing twice is a no-op.
	require.NoError(t, c.Close(context.Background()))
}

func TestClient_KeepAliveRejected(t *testing.T) {
	var issued atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/token":
			if issued.Add(1) == 1 {
				writeToken(w, "first", time.Now().Add(30*time.Second))
				return
			}
			writeToken(w, "fresh", time.Now().Add(time.Hour))
		case "/api/v1/auth/keep-alive":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}), Config{})

	_, err := c.Token(context.Background())
	require.NoError(t, err)

	token, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, int32(2), issued.Load())
}

func TestClient_EmptyToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":""}`))
	}), Config{})

	_, err := c.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

type recordingObserver struct {
	mu    sync.Mutex
	codes []int
}

func (o *recordingObserver) ObserveRequest(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes = append(o.codes, status)
}

func TestClient_Observer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c, err := NewClient(Config{URL: srv.URL}, nil, WithObserver(obs), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), fetch.Request{Path: "directorybindings"})
	require.NoError(t, err)
	assert.Equal(t, []int{200}, obs.codes)
}
