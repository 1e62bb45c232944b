// Command svxreflectord runs the reflector server: it loads configuration,
// wires the logger, metrics, and reflector core together, and serves the
// TCP control plane, UDP audio plane, and optional HTTP status endpoint
// until terminated by a signal (spec.md §6 "Exit codes").
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sm0svx/svxreflector-go/internal/config"
	"github.com/sm0svx/svxreflector-go/internal/log"
	"github.com/sm0svx/svxreflector-go/internal/metrics"
	"github.com/sm0svx/svxreflector-go/internal/reflector"
	"github.com/sm0svx/svxreflector-go/internal/status"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "/etc/svxreflector.conf", "path to the reflector configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "svxreflectord: loading config: %v\n", err)
		return 1
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel), log.NewConsoleAppender())
	log.SetDefault(logger)

	if len(cfg.AuthKeys) == 0 {
		logger.Error().Msg("no AUTH_KEY entries configured; no client will ever authenticate")
		return 1
	}

	core := reflector.New(cfg)
	go core.Run()
	defer core.Stop()

	addr := fmt.Sprintf(":%d", cfg.ListenPort)

	errCh := make(chan error, 3)

	go func() {
		logger.Info().Str("addr", addr).Msg("starting TCP control listener")
		errCh <- core.ListenAndServeTCP(addr)
	}()
	go func() {
		logger.Info().Str("addr", addr).Msg("starting UDP audio listener")
		errCh <- core.ListenAndServeUDP(addr)
	}()

	var httpSrv *http.Server
	if cfg.HTTPSrvEnabled {
		mux := http.NewServeMux()
		mux.Handle("/status", status.Handler(core))
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		httpSrv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTPSrvPort), Handler: mux}
		go func() {
			logger.Info().Str("addr", httpSrv.Addr).Msg("starting status HTTP server")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	go func() {
		for t := range ticker.C {
			core.Tick(t)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		if httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(ctx)
		}
		return 0
	case err := <-errCh:
		logger.Error().Err(err).Msg("listener failed")
		return 1
	}
}
