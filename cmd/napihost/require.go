package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/napi-host/metrics"
	"github.com/wippyai/napi-host/runtime"
)

const drainTimeout = 30 * time.Second

func newRequireCmd(a *app) *cobra.Command {
	var (
		pkg, from   string
		interactive bool
		list        bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "require <specifier>",
		Short: "Load an addon and print its exports",
		Example: `  napihost require ./addon.node --package my-pkg
  napihost require ./addon.node -p my-pkg -i
  napihost require core:fs --metrics-addr :9090`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if metricsAddr == "" {
				metricsAddr = a.cfg.Metrics.Addr
			}
			s, err := a.session(ctx, metricsAddr)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			exports, err := s.rt.Require(ctx, args[0], pkg, from)
			if err != nil {
				return err
			}
			if err := s.drain(ctx); err != nil {
				return err
			}

			if interactive && term.IsTerminal(int(os.Stdout.Fd())) {
				return runInteractive(s, args[0], exports)
			}
			if interactive {
				a.logger.Warn("stdout is not a terminal, printing exports instead")
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(exports))
			if list {
				s.listAddons(cmd.ErrOrStderr())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package the requiring module belongs to")
	cmd.Flags().StringVarP(&from, "from", "f", "./index", "package-relative path of the requiring module")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse and call exported functions")
	cmd.Flags().BoolVar(&list, "list", false, "list every addon the registry has seen on stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

// session is one engine instance plus the loaders and metrics endpoint
// behind it.
type session struct {
	loaders *runtime.Loaders
	rt      *runtime.Runtime
	server  *http.Server
	logger  *zap.Logger
}

func (a *app) session(ctx context.Context, metricsAddr string) (*session, error) {
	s := &session{logger: a.logger}

	var rec metrics.Recorder = metrics.Nop{}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		p, err := metrics.NewPrometheus(reg)
		if err != nil {
			return nil, err
		}
		rec = p
		if err := s.serveMetrics(metricsAddr, reg); err != nil {
			return nil, err
		}
	}

	loaders, err := runtime.NewRegistry(ctx, runtime.RegistryConfig{
		Layout:            a.cfg.Layout(),
		DefaultAPIVersion: a.cfg.Addons.DefaultAPIVersion,
		Recorder:          rec,
		Wasm:              a.cfg.Engine(),
	})
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.loaders = loaders

	rt, err := runtime.New(ctx, loaders.Registry,
		runtime.WithWorkers(a.cfg.Async.Workers),
		runtime.WithAliases(a.cfg.Aliases),
		runtime.WithRecorder(rec),
		runtime.WithLogger(a.logger.Named("engine")),
	)
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	if err := rt.InstallGlobal(); err != nil {
		_ = rt.Close()
		s.close(ctx)
		return nil, err
	}
	s.rt = rt
	return s, nil
}

func (s *session) serveMetrics(addr string, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

func (s *session) listAddons(w io.Writer) {
	for _, info := range s.loaders.Registry.Addons() {
		state := "unloaded"
		if info.Loaded {
			state = fmt.Sprintf("v%d %s", info.APIVersion, info.LoadedFilePath)
		}
		fmt.Fprintf(w, "%s\t%s\n", info.FullPath, state)
	}
}

// drain runs queued async completions until the loop is idle.
func (s *session) drain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	return s.rt.Loop().Drain(ctx)
}

func (s *session) close(ctx context.Context) {
	if s.rt != nil {
		if err := s.rt.Close(); err != nil {
			s.logger.Warn("close engine", zap.Error(err))
		}
	}
	if s.loaders != nil {
		if err := s.loaders.Close(ctx); err != nil {
			s.logger.Warn("close loaders", zap.Error(err))
		}
	}
	if s.server != nil {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdown)
	}
}
