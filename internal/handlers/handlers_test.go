package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timmy93/MyJDProxy/internal/config"
	"github.com/Timmy93/MyJDProxy/internal/jd"
	"github.com/Timmy93/MyJDProxy/internal/myjd"
	"github.com/Timmy93/MyJDProxy/internal/worker"
)

type stubDevice struct {
	records  []myjd.PackageRecord
	captured *myjd.AddLinksParams
}

func (d *stubDevice) AddLinks(_ context.Context, params myjd.AddLinksParams) error {
	d.captured = &params
	return nil
}

func (d *stubDevice) QueryDownloadPackages(context.Context) ([]myjd.PackageRecord, error) {
	return d.records, nil
}

func (d *stubDevice) QueryLinkgrabberPackages(context.Context) ([]myjd.CrawledPackage, error) {
	return nil, nil
}

func (d *stubDevice) StartDownloads(context.Context) error            { return nil }
func (d *stubDevice) PauseDownloads(context.Context, bool) error      { return nil }
func (d *stubDevice) ForceDownload(context.Context, []int64) error    { return nil }
func (d *stubDevice) SetEnabled(context.Context, bool, []int64) error { return nil }

type stubSession struct {
	device     jd.Device
	connectErr error
}

func (s *stubSession) Connect(context.Context) error    { return s.connectErr }
func (s *stubSession) Reconnect(context.Context) error  { return nil }
func (s *stubSession) Disconnect(context.Context) error { return nil }

func (s *stubSession) ResolveDevice(context.Context, string) (jd.Device, error) {
	return s.device, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MyJD: config.MyJDConfig{
			Username: "user@example.com",
			DeviceID: "jd-device-1",
		},
		Downloads: config.DownloadsConfig{
			BasePath:          "/downloads",
			AllowedCategories: []string{"tv_show", "movie"},
			CategoryAliases: map[string][]string{
				"tv_show": {"serie", "tv"},
			},
		},
		Server: config.ServerConfig{Port: 8080},
	}
}

func newTestServer(session jd.Session) *Server {
	cfg := testConfig()
	client := jd.New(session, jd.Config{
		DeviceID:          cfg.MyJD.DeviceID,
		BasePath:          cfg.Downloads.BasePath,
		AllowedCategories: cfg.Downloads.AllowedCategories,
		Logger:            zerolog.Nop(),
	})
	manager := worker.NewManager(client, time.Minute, zerolog.Nop())
	return NewServer(cfg, client, nil, manager, zerolog.Nop())
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthReflectsConnectionState(t *testing.T) {
	s := newTestServer(&stubSession{device: &stubDevice{}})

	w := doRequest(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(s, http.MethodPost, "/api/connect", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["connected"])
}

func TestConnectWhileConnectedIsNoOp(t *testing.T) {
	s := newTestServer(&stubSession{device: &stubDevice{}})

	require.Equal(t, http.StatusOK, doRequest(s, http.MethodPost, "/api/connect", "").Code)
	w := doRequest(s, http.MethodPost, "/api/connect", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Already connected")
}

func TestAddDownloadValidationFailures(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "no links",
			body:        `{"name":"pkg","links":[],"category":"movie"}`,
			wantMessage: "No download links provided",
		},
		{
			name:        "invalid category",
			body:        `{"name":"pkg","links":["http://host/a"],"category":"horror"}`,
			wantMessage: "Invalid category",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&stubSession{device: &stubDevice{}})

			w := doRequest(s, http.MethodPost, "/api/downloads", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation_error")
			assert.Contains(t, w.Body.String(), tc.wantMessage)
		})
	}
}

func TestAddDownloadResolvesAliasAndCleansName(t *testing.T) {
	device := &stubDevice{}
	s := newTestServer(&stubSession{device: device})

	w := doRequest(s, http.MethodPost, "/api/downloads",
		`{"name":"My Show Stagione 3","links":["http://host/a"],"category":"serie"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, device.captured)
	assert.Equal(t, "My Show S03", device.captured.PackageName)
	assert.Equal(t, "/downloads/tv_show", device.captured.DestinationFolder)
	assert.True(t, device.captured.AutoStart, "auto_start defaults to true")
	assert.Contains(t, w.Body.String(), `"category":"tv_show"`)
}

func TestListDownloadsMapsConnectionErrorTo503(t *testing.T) {
	s := newTestServer(&stubSession{connectErr: errors.New("bad credentials")})

	w := doRequest(s, http.MethodGet, "/api/downloads", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection_error")
}

func TestListDownloadsReturnsViews(t *testing.T) {
	device := &stubDevice{
		records: []myjd.PackageRecord{
			{UUID: 42, Name: "pkg", BytesTotal: 1000, BytesLoaded: 250, Status: "downloading"},
		},
	}
	s := newTestServer(&stubSession{device: device})

	w := doRequest(s, http.MethodGet, "/api/downloads", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success  bool `json:"success"`
		Count    int  `json:"count"`
		Packages []struct {
			PackageID          string  `json:"package_id"`
			ProgressPercentage float64 `json:"progress_percentage"`
			IsDownloading      bool    `json:"is_downloading"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "42", body.Packages[0].PackageID)
	assert.InDelta(t, 25.0, body.Packages[0].ProgressPercentage, 0.001)
	assert.True(t, body.Packages[0].IsDownloading)
}

func TestStartDownloadsWithoutBodyStartsAll(t *testing.T) {
	s := newTestServer(&stubSession{device: &stubDevice{}})

	w := doRequest(s, http.MethodPost, "/api/downloads/start", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Started all downloads")
}

func TestPauseDownloadsRejectsMalformedIDs(t *testing.T) {
	s := newTestServer(&stubSession{device: &stubDevice{}})

	w := doRequest(s, http.MethodPost, "/api/downloads/pause", `{"package_ids":["abc"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestConfigInfoOmitsSecrets(t *testing.T) {
	s := newTestServer(&stubSession{device: &stubDevice{}})

	w := doRequest(s, http.MethodGet, "/api/config", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jd-device-1")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Show Stagione 3", "My Show S03"},
		{"My Show stagione-12", "My Show S12"},
		{"My Show STAGIONE: 4", "My Show S04"},
		{"My Show S01", "My Show S01"},
		{"Stagione", "Stagione"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, cleanName(tc.in), "in=%q", tc.in)
	}
}
