/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/clog/gcp"
	"github.com/google/go-github/v75/github"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"github.com/stagehand-bot/stagehand/pkg/ghclient"
	"github.com/stagehand-bot/stagehand/pkg/tracker"
)

type envConfig struct {
	Port        int     `envconfig:"PORT" default:"8080" required:"true"`
	MetricsPort int     `envconfig:"METRICS_PORT" default:"2112"`
	Token       string  `envconfig:"GITHUB_TOKEN" required:"true"`
	Owner       string  `envconfig:"GITHUB_OWNER" required:"true"`
	Repo        string  `envconfig:"GITHUB_REPO" required:"true"`
	Label       string  `envconfig:"TRACKING_LABEL" default:"staging deploy"`
	QALabel     string  `envconfig:"INTERNAL_QA_LABEL" default:"internal qa"`
	RPS         float64 `envconfig:"GITHUB_RPS" default:"5"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var env envConfig
	if err := envconfig.Process("", &env); err != nil {
		clog.Fatalf("failed to process env var: %s", err)
	}

	slog.SetDefault(slog.New(gcp.NewHandler(slog.LevelInfo)))
	log := clog.FromContext(ctx)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: env.Token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	caller := ghclient.New(ghclient.WithRequestsPerSecond(env.RPS))
	t := tracker.New(gh, caller, env.Owner, env.Repo,
		tracker.WithLabel(env.Label),
		tracker.WithInternalQALabel(env.QALabel))

	go serveMetrics(ctx, env.MetricsPort)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /refresh", handleRefresh(t))
	mux.HandleFunc("POST /generate", handleGenerate(t))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutting down server: %v", err)
		}
	}()

	log.Infof("stagehand listening on :%d for %s/%s", env.Port, env.Owner, env.Repo)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.Fatalf("server error: %v", err)
	}
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.FromContext(ctx).Errorf("metrics server error: %v", err)
	}
}
