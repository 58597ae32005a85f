package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/yojeum-server/internal/config"
	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/metrics"
	"github.com/mrwolf/yojeum-server/internal/models"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

const testToken = "test_owner_token"

type stubSharer struct {
	err error
}

func (s stubSharer) CanShareFiles(string) bool { return true }
func (s stubSharer) CanShareText() bool        { return true }
func (s stubSharer) Share(context.Context, sharecard.SharePayload) error {
	return s.err
}

type stubLetters struct {
	err error
}

func (s stubLetters) GenerateNow(_ context.Context, date string) (string, error) {
	return filepath.Join("Letters", "Daily", date+".md"), s.err
}

type testEnv struct {
	server    *httptest.Server
	vaultPath string
}

func setupTestServer(t *testing.T, sharer sharecard.Sharer, letters LetterGenerator) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	vaultPath := filepath.Join(tmpDir, "vault")

	cfg := &config.Config{
		Port:      "0",
		VaultPath: vaultPath,
		DBPath:    filepath.Join(tmpDir, "test.db"),
		Token:     testToken,
		Timezone:  "UTC",
		RateLimit: 1000,
	}

	database, err := db.Open(cfg.DBPath)
	require.NoError(t, err, "opening database")

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	router := NewRouter(Deps{
		Config:    cfg,
		DB:        database,
		Vault:     vault.NewVault(vaultPath),
		Summaries: summary.NewService(database, time.UTC, zerolog.Nop()),
		Sharer:    sharer,
		Letters:   letters,
		Gatherer:  reg,
		Log:       zerolog.Nop(),
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		database.Close()
	})

	return &testEnv{server: server, vaultPath: vaultPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) putRecord(t *testing.T, date, energy string, tags []string, memo string) {
	t.Helper()
	resp := e.do(t, http.MethodPut, "/api/v1/records/"+date, models.RecordRequest{Energy: energy, Tags: tags, Memo: memo})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[models.HealthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "connected", body.Database)
	assert.Equal(t, "writable", body.Vault)
	assert.Equal(t, "download", body.Sharing)
}

func TestAuthRequired(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	resp, err := http.Get(env.server.URL + "/api/v1/records")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decode[ErrorResponse](t, resp).Code)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/records", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestRecordLifecycle(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	env.putRecord(t, "2024-03-15", "보통", []string{"#독서"}, "조용한 하루")

	resp := env.do(t, http.MethodGet, "/api/v1/records/2024-03-15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[models.DailyRecord](t, resp)
	assert.Equal(t, models.EnergyNeutral, rec.Energy)
	assert.Equal(t, []string{"#독서"}, rec.Tags)

	resp = env.do(t, http.MethodGet, "/api/v1/records?since=2024-03-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[models.RecordsResponse](t, resp).Records, 1)

	resp = env.do(t, http.MethodDelete, "/api/v1/records/2024-03-15", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/records/2024-03-15", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodDelete, "/api/v1/records/2024-03-15", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutRecordValidation(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	resp := env.do(t, http.MethodPut, "/api/v1/records/2024-13-45", models.RecordRequest{Energy: "low"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_DATE", decode[ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodPut, "/api/v1/records/2024-03-15", models.RecordRequest{Energy: "ecstatic"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ENERGY", decode[ErrorResponse](t, resp).Code)

	resp = env.do(t, http.MethodGet, "/api/v1/records?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummaryEndpoint(t *testing.T) {
	env := setupTestServer(t, nil, nil)

	resp := env.do(t, http.MethodGet, "/api/v1/summary/2024-03-15", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.putRecord(t, "2024-03-13", "low", nil, "")
	env.putRecord(t, "2024-03-14", "low", nil, "")
	env.putRecord(t, "2024-03-15", "low", nil, "")

	resp = env.do(t, http.MethodGet, "/api/v1/summary/2024-03-15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[models.SummaryResponse](t, resp)
	assert.Equal(t, "contextual", body.Mode)
	assert.Contains(t, summary.Pool(summary.PoolSustainedLowContinuing), body.Sentence)

	// same inputs, same sentence
	again := decode[models.SummaryResponse](t, env.do(t, http.MethodGet, "/api/v1/summary/2024-03-15", nil))
	assert.Equal(t, body.Sentence, again.Sentence)
}

func TestCardDownload(t *testing.T) {
	env := setupTestServer(t, nil, nil)
	env.putRecord(t, "2024-03-15", "high", nil, "")

	resp := env.do(t, http.MethodGet, "/api/v1/summary/2024-03-15/card.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Regexp(t, regexp.MustCompile(`attachment; filename="yojeom-eottae-\d{8}\.png"`), resp.Header.Get("Content-Disposition"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestShareWithoutSharerDownloads(t *testing.T) {
	env := setupTestServer(t, nil, nil)
	env.putRecord(t, "2024-03-15", "high", nil, "")

	resp := env.do(t, http.MethodPost, "/api/v1/summary/2024-03-15/share", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[models.ShareResponse](t, resp)

	assert.Equal(t, "download", body.Strategy)
	assert.Equal(t, "downloaded", body.Outcome)
	assert.Regexp(t, `^Cards/yojeom-eottae-\d{8}\.png$`, filepath.ToSlash(body.File))
	assert.FileExists(t, filepath.Join(env.vaultPath, body.File))
	require.Len(t, body.Messages, 1)
	assert.Contains(t, body.Messages[0], "다운로드되었습니다")
	assert.NotEmpty(t, body.ShareID)

	shares := decode[models.SharesResponse](t, env.do(t, http.MethodGet, "/api/v1/shares", nil))
	require.Len(t, shares.Shares, 1)
	assert.Equal(t, body.ShareID, shares.Shares[0].ID)
	assert.FileExists(t, filepath.Join(env.vaultPath, "Log", "shares.jsonl"))
}

func TestShareCanceledDoesNotDownload(t *testing.T) {
	env := setupTestServer(t, stubSharer{err: sharecard.ErrShareCanceled}, nil)
	env.putRecord(t, "2024-03-15", "neutral", nil, "")

	resp := env.do(t, http.MethodPost, "/api/v1/summary/2024-03-15/share", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[models.ShareResponse](t, resp)

	assert.Equal(t, "share_file", body.Strategy)
	assert.Equal(t, "canceled", body.Outcome)
	assert.Empty(t, body.File)
	assert.Empty(t, body.Messages)
	assert.NoDirExists(t, filepath.Join(env.vaultPath, "Cards"))
}

func TestShareFailureFallsBackToDownload(t *testing.T) {
	env := setupTestServer(t, stubSharer{err: errors.New("telegram: send: chat not found")}, nil)
	env.putRecord(t, "2024-03-15", "neutral", nil, "")

	body := decode[models.ShareResponse](t, env.do(t, http.MethodPost, "/api/v1/summary/2024-03-15/share", nil))
	assert.Equal(t, "downloaded", body.Outcome)
	assert.Equal(t, filepath.Join("Cards", sharecard.ShareFallbackName), body.File)

	shares := decode[models.SharesResponse](t, env.do(t, http.MethodGet, "/api/v1/shares", nil))
	require.Len(t, shares.Shares, 1)
	assert.Contains(t, shares.Shares[0].Error, "chat not found")
}

func TestGenerateLetter(t *testing.T) {
	env := setupTestServer(t, nil, nil)
	resp := env.do(t, http.MethodPost, "/api/v1/letters/2024-03-15", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	env = setupTestServer(t, nil, stubLetters{})
	resp = env.do(t, http.MethodPost, "/api/v1/letters/2024-03-15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, filepath.Join("Letters", "Daily", "2024-03-15.md"), decode[map[string]string](t, resp)["letter"])

	env = setupTestServer(t, nil, stubLetters{err: summary.ErrNoRecord})
	resp = env.do(t, http.MethodPost, "/api/v1/letters/2024-03-15", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestServer(t, nil, nil)
	env.putRecord(t, "2024-03-15", "high", nil, "")
	env.do(t, http.MethodGet, "/api/v1/summary/2024-03-15", nil)

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "yojeum_summaries_generated_total")
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	allowed := func(key string) bool {
		ok, _ := rl.Allow(key)
		return ok
	}

	assert.True(t, allowed("owner"))
	now = now.Add(20 * time.Second)
	assert.True(t, allowed("owner"))

	ok, wait := rl.Allow("owner")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)
	assert.True(t, allowed("someone-else"))

	// the first request has left the window
	now = now.Add(41 * time.Second)
	assert.True(t, allowed("owner"))
}
