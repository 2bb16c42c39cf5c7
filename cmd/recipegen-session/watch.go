package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/forkful/recipegen/internal/adapters/cookiejar"
	"github.com/forkful/recipegen/internal/bootstrap"
	"github.com/forkful/recipegen/internal/observability/metrics"
	"github.com/forkful/recipegen/internal/service"
)

const probeTimeout = 10 * time.Second

type watchOptions struct {
	baseURL     string
	probe       bool
	metricsAddr string
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the token synchronizer until interrupted",
		Long: `watch signs in with the configured auth mode (AUTH_MODE), then keeps the session
credential for --base-url current as the identity provider rotates or revokes it.
With --probe, GET /auth/status is called with the stored credential after every settled state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "application origin (defaults to APP_BASE_URL)")
	cmd.Flags().BoolVar(&opts.probe, "probe", false, "call /auth/status after each settled state")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve synchronizer metrics at /metrics on this address (disabled when empty)")
	return cmd
}

func runWatch(ctx context.Context, opts *watchOptions) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.ConfigureLogger(&cfg)

	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = cfg.HTTP.BaseURL
	}

	auth, err := bootstrap.BuildAuth(bootstrap.AuthConfig{
		Auth:   cfg.Auth,
		Leeway: cfg.Gate.Leeway,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	src, err := bootstrap.BuildIdentitySource(ctx, bootstrap.IdentitySourceConfig{
		Config: &cfg,
		Auth:   auth,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	store, err := cookiejar.New(cookiejar.Options{BaseURL: baseURL, Dev: cfg.IsDev})
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}

	var (
		recorder  service.SyncRecorder
		metricsLn net.Listener
		metricsSv *http.Server
	)
	if opts.metricsAddr != "" {
		metricsLn, err = net.Listen("tcp", opts.metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		recorder, metricsSv = newMetricsServer(metricsLn.Addr().String())
	}

	sync, err := service.NewTokenSynchronizer(service.TokenSynchronizerOptions{
		Provider:       src.Provider,
		Store:          store,
		RefreshTimeout: cfg.Sync.RefreshTimeout,
		Leeway:         cfg.Gate.Leeway,
		Recorder:       recorder,
		Logger:         logger,
	})
	if err != nil {
		if metricsLn != nil {
			_ = metricsLn.Close()
		}
		return err
	}

	logger.InfoContext(ctx, "session watcher starting", "base_url", baseURL, "auth_mode", auth.Mode, "probe", opts.probe)
	s := &session{
		sync:      sync,
		watch:     src.Watch,
		client:    &http.Client{Jar: store.Jar(), Timeout: probeTimeout},
		statusURL: store.BaseURL().JoinPath("/auth/status").String(),
		probe:     opts.probe,
		logger:    logger,
		metrics:   metricsSv,
		metricsLn: metricsLn,
	}
	return s.run(ctx)
}

// newMetricsServer registers the synchronizer collectors on a fresh registry and returns
// a server exposing it at /metrics.
func newMetricsServer(addr string) (*metrics.AuthMetrics, *http.Server) {
	reg := bootstrap.NewRegistry()
	recorder := metrics.New(reg)
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return recorder, bootstrap.NewHTTPServer(addr, mux)
}

// session runs the synchronizer next to the identity source's watch loop.
type session struct {
	sync      *service.TokenSynchronizer
	watch     func(ctx context.Context) error
	client    *http.Client
	statusURL string
	probe     bool
	logger    *slog.Logger

	// metrics serves synchronizer metrics on metricsLn when set.
	metrics   *http.Server
	metricsLn net.Listener

	// onProbe receives every probe result. Defaults to logging it.
	onProbe func(service.CredentialStatus, error)
}

func (s *session) run(ctx context.Context) error {
	settled := make(chan service.SyncState, 1)
	cancel := s.sync.OnStateChange(func(st service.SyncState) {
		if st.Phase != service.PhaseSettled {
			return
		}
		s.logSettled(st)
		if !s.probe {
			return
		}
		// Keep only the latest settled state; the prober only needs to know something changed.
		select {
		case <-settled:
		default:
		}
		settled <- st
	})
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.sync.Run(gctx) })
	g.Go(func() error {
		if err := s.watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("identity watch: %w", err)
		}
		return nil
	})
	if s.metrics != nil {
		g.Go(func() error {
			s.logger.Info("serving metrics", "addr", s.metricsLn.Addr().String())
			if err := s.metrics.Serve(s.metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return bootstrap.ShutdownHTTPServer(bootstrap.ShutdownConfig{
				Context: context.Background(),
				Server:  s.metrics,
				Timeout: 5 * time.Second,
			})
		})
	}
	if s.probe {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-settled:
					s.report(probeStatus(gctx, s.client, s.statusURL))
				}
			}
		})
	}
	return g.Wait()
}

func (s *session) logSettled(st service.SyncState) {
	attrs := []any{"epoch", st.Epoch, "authenticated", st.Authenticated}
	if st.Subject != "" {
		attrs = append(attrs, "subject", st.Subject)
	}
	if st.LastError != nil {
		attrs = append(attrs, "error", st.LastError)
		s.logger.Warn("session settled with refresh error", attrs...)
		return
	}
	s.logger.Info("session settled", attrs...)
}

func (s *session) report(status service.CredentialStatus, err error) {
	if s.onProbe != nil {
		s.onProbe(status, err)
		return
	}
	if err != nil {
		s.logger.Warn("status probe failed", "error", err)
		return
	}
	s.logger.Info("status probe", "authenticated", status.Authenticated, "subject", status.Subject, "expires_at", status.ExpiresAt)
}

// probeStatus asks the application how it sees the credential currently held by client's jar.
func probeStatus(ctx context.Context, client *http.Client, statusURL string) (service.CredentialStatus, error) {
	var out service.CredentialStatus
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return out, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("status request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("status request: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode status: %w", err)
	}
	return out, nil
}
