package packages_http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/PackageTracker/internal/cache/rediscache"
	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/BearBump/PackageTracker/internal/storage/memkv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	svc := packages.New(packages.NewStore(memkv.New()), nil, "")
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	srv := httptest.NewServer(NewRouter(svc, opts))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func listIDs(t *testing.T, base, view string) []string {
	t.Helper()
	resp, body := do(t, http.MethodGet, base+"/v1/packages?view="+view, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Packages []models.Package `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	ids := make([]string, 0, len(out.Packages))
	for _, p := range out.Packages {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, Options{})
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestDetect(t *testing.T) {
	srv := newServer(t, Options{})

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/detect?number=1z9999999999999999", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "1Z9999999999999999", got["number"])
	require.Equal(t, "UPS", got["provider"])
	require.Equal(t, "ups", got["providerKey"])
	require.Equal(t, "https://www.ups.com/track?tracknum=1Z9999999999999999", got["trackingUrl"])
	require.NotEmpty(t, got["status"])

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/detect?number=not-a-real-number", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = map[string]string{}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "unknown", got["providerKey"])
	_, hasURL := got["trackingUrl"]
	require.False(t, hasURL)

	resp, _ = do(t, http.MethodGet, srv.URL+"/v1/detect?number=%20-%20", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCarriers(t *testing.T) {
	srv := newServer(t, Options{})
	resp, body := do(t, http.MethodGet, srv.URL+"/v1/carriers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Carriers []carrierView `json:"carriers"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Carriers, 21)
	require.Equal(t, "USPS", out.Carriers[0].Key)
	require.Equal(t, "FEDEX", out.Carriers[len(out.Carriers)-1].Key)
	require.NotEmpty(t, out.Carriers[1].Patterns)
}

func TestPackageLifecycle(t *testing.T) {
	srv := newServer(t, Options{})

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":" tba123456789012 ","name":"Books"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Package
	require.NoError(t, json.Unmarshal(body, &p))
	require.Equal(t, "TBA123456789012", p.TrackingNumber)
	require.Equal(t, "amazon", p.ProviderKey)
	require.Equal(t, "Books", p.Name)

	resp, body = do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":"TBA123456789012"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, string(body), "already being tracked")

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":"   "}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/packages", `{`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPatch, srv.URL+"/v1/packages/"+p.ID, `{"status":"In transit","location":"Memphis, TN"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodPatch, srv.URL+"/v1/packages/"+p.ID, `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/packages/"+p.ID+"/archive", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, listIDs(t, srv.URL, "active"))
	require.Equal(t, []string{p.ID}, listIDs(t, srv.URL, "archived"))

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"active":0,"archived":1}`, string(body))

	resp, _ = do(t, http.MethodPost, srv.URL+"/v1/packages/"+p.ID+"/restore", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, []string{p.ID}, listIDs(t, srv.URL, "active"))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/v1/packages/"+p.ID+"?view=archived", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, []string{p.ID}, listIDs(t, srv.URL, "active"))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/v1/packages/"+p.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, listIDs(t, srv.URL, "active"))
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	srv := newServer(t, Options{})
	resp, body := do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":"TBA123456789012"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	before := listIDs(t, srv.URL, "active")

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/v1/packages/nope/archive", ""},
		{http.MethodPost, "/v1/packages/nope/restore", ""},
		{http.MethodDelete, "/v1/packages/nope", ""},
		{http.MethodDelete, "/v1/packages/nope?view=archived", ""},
		{http.MethodPatch, "/v1/packages/nope", `{"name":"x"}`},
	} {
		resp, _ := do(t, tc.method, srv.URL+tc.path, tc.body)
		require.Equal(t, http.StatusNoContent, resp.StatusCode, tc.path)
	}
	require.Equal(t, before, listIDs(t, srv.URL, "active"))
	require.Empty(t, listIDs(t, srv.URL, "archived"))
}

func TestBadView(t *testing.T) {
	srv := newServer(t, Options{})
	resp, _ := do(t, http.MethodGet, srv.URL+"/v1/packages?view=trash", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClear(t *testing.T) {
	srv := newServer(t, Options{})
	do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":"1Z9999999999999999"}`)
	do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":"TBA123456789012"}`)
	require.Len(t, listIDs(t, srv.URL, "active"), 2)

	resp, _ := do(t, http.MethodDelete, srv.URL+"/v1/packages?view=archived", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Len(t, listIDs(t, srv.URL, "active"), 2)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/v1/packages", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, listIDs(t, srv.URL, "active"))
}

func TestBackupRestore(t *testing.T) {
	srv := newServer(t, Options{})
	do(t, http.MethodPost, srv.URL+"/v1/packages", `{"trackingNumber":"1Z9999999999999999"}`)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/backup", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="package-tracker-backup-2025-03-09.json"`, resp.Header.Get("Content-Disposition"))
	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Contains(t, snap, "packages")
	require.Contains(t, snap, "archived")
	require.JSONEq(t, `"1.0"`, string(snap["version"]))

	other := newServer(t, Options{})
	resp, out := do(t, http.MethodPost, other.URL+"/v1/restore", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"packages":1,"archived":0}`, string(out))
	require.Equal(t, listIDs(t, srv.URL, "active"), listIDs(t, other.URL, "active"))

	resp, _ = do(t, http.MethodPost, other.URL+"/v1/restore", `[1,2,3]`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, listIDs(t, other.URL, "active"), 1)

	resp, _ = do(t, http.MethodPost, other.URL+"/v1/restore", `{"archived":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listIDs(t, other.URL, "active"), 1)
}

func TestRestore_TooLarge(t *testing.T) {
	svc := packages.New(packages.NewStore(memkv.New()), nil, "")
	router := NewRouter(svc, Options{})

	body := `{"packages":[` + strings.Repeat(" ", maxBackupBytes) + `]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/restore", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	list, err := svc.List(context.Background(), models.CollectionActive)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestSwaggerServed(t *testing.T) {
	sw := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	srv := newServer(t, Options{SwaggerPath: sw})

	resp, body := do(t, http.MethodGet, srv.URL+"/swagger.json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.Contains(t, string(body), `"swagger"`)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	srv := newServer(t, Options{Limiter: rediscache.NewRateLimiter(rc, 2, time.Minute)})

	for i := 0; i < 2; i++ {
		resp, _ := do(t, http.MethodGet, srv.URL+"/v1/stats", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := do(t, http.MethodGet, srv.URL+"/v1/stats", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "3", resp.Header.Get("X-RateLimit-Count"))

	// health checks are not limited
	resp, _ = do(t, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, subject string) (bool, int64, error) {
	return false, 0, context.DeadlineExceeded
}

func TestRateLimit_FailsOpen(t *testing.T) {
	srv := newServer(t, Options{Limiter: brokenLimiter{}})
	resp, _ := do(t, http.MethodGet, srv.URL+"/v1/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
