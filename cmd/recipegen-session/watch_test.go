package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/recipegen/config"
	"github.com/forkful/recipegen/internal/adapters/cookiejar"
	"github.com/forkful/recipegen/internal/bootstrap"
	"github.com/forkful/recipegen/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func devConfig(baseURL string) *config.AppConfig {
	return &config.AppConfig{
		IsDev: true,
		Auth: config.AuthConfig{
			Mode: config.AuthModeMock,
			DevAuth: config.DevAuthConfig{
				UserID:         "dev-user",
				Email:          "dev@example.com",
				SigningKey:     "recipegen-test-signing-key",
				TokenTTL:       time.Hour,
				RotateInterval: time.Hour,
			},
		},
		Gate: config.GateConfig{Leeway: 30 * time.Second},
		HTTP: config.HTTPConfig{BaseURL: baseURL},
	}
}

// newAppServer serves the real router with dev auth and no storage backends.
func newAppServer(t *testing.T) (*httptest.Server, *bootstrap.AuthComponents) {
	t.Helper()
	cfg := devConfig("http://localhost")
	auth, err := bootstrap.BuildAuth(bootstrap.AuthConfig{Auth: cfg.Auth, Leeway: cfg.Gate.Leeway, Logger: discardLogger()})
	require.NoError(t, err)
	h, err := bootstrap.BuildHTTPHandler(&bootstrap.HTTPServerConfig{
		Config:   cfg,
		Services: bootstrap.ServiceContainer{Auth: auth},
		Logger:   discardLogger(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, auth
}

func TestSession_ProbeSeesSyncedCredential(t *testing.T) {
	srv, auth := newAppServer(t)
	cfg := devConfig(srv.URL)

	src, err := bootstrap.BuildIdentitySource(context.Background(), bootstrap.IdentitySourceConfig{
		Config: cfg, Auth: auth, Logger: discardLogger(),
	})
	require.NoError(t, err)
	store, err := cookiejar.New(cookiejar.Options{BaseURL: srv.URL, Dev: true})
	require.NoError(t, err)
	sync, err := service.NewTokenSynchronizer(service.TokenSynchronizerOptions{
		Provider: src.Provider,
		Store:    store,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	probes := make(chan service.CredentialStatus, 1)
	s := &session{
		sync:      sync,
		watch:     src.Watch,
		client:    &http.Client{Jar: store.Jar(), Timeout: time.Second},
		statusURL: srv.URL + "/auth/status",
		probe:     true,
		logger:    discardLogger(),
		onProbe: func(st service.CredentialStatus, err error) {
			assert.NoError(t, err)
			select {
			case probes <- st:
			default:
			}
			cancel()
		},
	}

	require.NoError(t, s.run(ctx))

	select {
	case st := <-probes:
		assert.True(t, st.Authenticated)
		assert.Equal(t, "dev-user", st.Subject)
	default:
		t.Fatal("no probe result recorded")
	}
	assert.Equal(t, service.PhaseStopped, sync.State().Phase)
}

func TestSession_ServesSyncMetrics(t *testing.T) {
	srv, auth := newAppServer(t)
	cfg := devConfig(srv.URL)

	src, err := bootstrap.BuildIdentitySource(context.Background(), bootstrap.IdentitySourceConfig{
		Config: cfg, Auth: auth, Logger: discardLogger(),
	})
	require.NoError(t, err)
	store, err := cookiejar.New(cookiejar.Options{BaseURL: srv.URL, Dev: true})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	recorder, metricsSrv := newMetricsServer(ln.Addr().String())

	sync, err := service.NewTokenSynchronizer(service.TokenSynchronizerOptions{
		Provider: src.Provider,
		Store:    store,
		Recorder: recorder,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scraped := make(chan string, 1)
	metricsURL := "http://" + ln.Addr().String() + "/metrics"
	s := &session{
		sync:      sync,
		watch:     src.Watch,
		client:    &http.Client{Jar: store.Jar(), Timeout: time.Second},
		statusURL: srv.URL + "/auth/status",
		probe:     true,
		logger:    discardLogger(),
		metrics:   metricsSrv,
		metricsLn: ln,
		onProbe: func(service.CredentialStatus, error) {
			defer cancel()
			resp, err := http.Get(metricsURL)
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = resp.Body.Close() }()
			body, err := io.ReadAll(resp.Body)
			assert.NoError(t, err)
			select {
			case scraped <- string(body):
			default:
			}
		},
	}

	require.NoError(t, s.run(ctx))

	select {
	case body := <-scraped:
		assert.Contains(t, body, `recipegen_auth_sync_events_total{kind="signed_in"}`)
		assert.Contains(t, body, "recipegen_auth_sync_refresh_total")
		assert.Contains(t, body, `result="success"`)
	default:
		t.Fatal("metrics were not scraped")
	}
}

func TestProbeStatus_WithoutCredential(t *testing.T) {
	srv, _ := newAppServer(t)

	st, err := probeStatus(context.Background(), srv.Client(), srv.URL+"/auth/status")

	require.NoError(t, err)
	assert.False(t, st.Authenticated)
	assert.Empty(t, st.Subject)
}

func TestProbeStatus_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := probeStatus(context.Background(), srv.Client(), srv.URL+"/auth/status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestRootCmd_HasWatch(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"watch"})
	require.NoError(t, err)
	assert.Equal(t, "watch", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("base-url"))
	assert.NotNil(t, cmd.Flags().Lookup("probe"))
	assert.NotNil(t, cmd.Flags().Lookup("metrics-addr"))
}
