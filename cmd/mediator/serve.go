// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/sage-x-project/didcomm-mediator/config"
	mediatorcrypto "github.com/sage-x-project/didcomm-mediator/crypto"
	"github.com/sage-x-project/didcomm-mediator/crypto/keys"
	"github.com/sage-x-project/didcomm-mediator/crypto/storage"
	"github.com/sage-x-project/didcomm-mediator/internal/logger"
	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
	"github.com/sage-x-project/didcomm-mediator/pkg/health"
	"github.com/sage-x-project/didcomm-mediator/persistence"
	"github.com/sage-x-project/didcomm-mediator/persistence/memory"
	"github.com/sage-x-project/didcomm-mediator/persistence/postgres"
	"github.com/sage-x-project/didcomm-mediator/protocol"
	"github.com/sage-x-project/didcomm-mediator/wallet"
)

// walletKeyID names the mediator's own signing key within its in-process
// keystore, mirroring the teacher's file-keystore convention (cmd/sage-crypto)
// of addressing keys by a stable id rather than holding them only in locals.
const walletKeyID = "mediator-signing-key"

var configDir string

func init() {
	serveCmd.Flags().StringVar(&configDir, "config-dir", "config", "directory holding {development,production,default}.yaml")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mediator's HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLoggerFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	logger.SetDefaultLogger(log)

	signingKey, verkey, err := loadSigningKey(cfg.Wallet)
	if err != nil {
		return fmt.Errorf("load wallet signing key: %w", err)
	}

	keyStore := storage.NewMemoryKeyStorage()
	if err := keyStore.Store(walletKeyID, signingKey); err != nil {
		return fmt.Errorf("store signing key: %w", err)
	}

	w, err := wallet.NewKeyWallet(signingKey)
	if err != nil {
		return fmt.Errorf("construct wallet: %w", err)
	}
	log.Info("wallet ready", logger.String("verkey", verkey))

	ctx := context.Background()
	store, err := newStore(ctx, cfg.Persistence)
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}
	defer store.Close()

	dispatcher := protocol.NewDispatcher(w, store, cfg.Endpoint.DIDCommPath(), []string{verkey})

	didDoc, err := buildDIDDocument(signingKey, verkey, cfg.Endpoint.DIDCommPath())
	if err != nil {
		return fmt.Errorf("build did document: %w", err)
	}
	invitation := buildInvitation(didDoc, cfg.Endpoint.DIDCommPath())

	httpHandler := &mediatorHTTPHandler{
		dispatcher: dispatcher,
		invitation: invitation,
		endpoint:   cfg.Endpoint.Domain,
		log:        log,
	}
	httpServer := newHTTPServer(cfg.Endpoint.Root, newRouter(httpHandler))

	go func() {
		log.Info("didcomm http server starting", logger.String("addr", cfg.Endpoint.Root))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", logger.Error(err))
		}
	}()

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer, err = health.StartHealthServer(cfg.Health.Port, store.Ping, func() error {
			if !keyStore.Exists(walletKeyID) {
				return fmt.Errorf("signing key %s missing from keystore", walletKeyID)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("start health server: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Info("metrics server starting", logger.String("addr", addr))
			if err := metrics.StartServer(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", logger.Error(err))
			}
		}()
	}

	return waitForShutdown(log, httpServer, healthServer)
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains in-flight
// requests before returning, matching spec.md §6's "0 on graceful
// shutdown" exit code contract.
func waitForShutdown(log logger.Logger, httpServer *http.Server, healthServer *health.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("http server shutdown error", logger.Error(err))
	}
	if healthServer != nil {
		if err := healthServer.Stop(ctx); err != nil {
			log.Error("health server shutdown error", logger.Error(err))
		}
	}
	return nil
}

// newLoggerFromConfig opens the configured output target (stdout, stderr,
// or a file path) and builds a StructuredLogger around it. The teacher's
// logger always emits JSON regardless of cfg.Format; this repository
// follows that rather than inventing a text-mode encoder it has no
// grounding for.
func newLoggerFromConfig(cfg config.LoggingConfig) (*logger.StructuredLogger, error) {
	var out *os.File
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log output %q: %w", cfg.Output, err)
		}
		out = f
	}

	level := parseLevel(cfg.Level)
	log := logger.NewLogger(out, level)
	return log, nil
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// loadSigningKey resolves the mediator's own signing identity: a base58
// Ed25519 seed named by cfg.SeedEnv, or an ephemeral freshly generated
// key when none is configured (fine for development, surprising in
// production — the caller's logs make that visible via the verkey it
// prints).
func loadSigningKey(cfg config.WalletConfig) (mediatorcrypto.KeyPair, string, error) {
	if cfg.SeedEnv != "" {
		seedB58 := os.Getenv(cfg.SeedEnv)
		if seedB58 == "" {
			return nil, "", fmt.Errorf("env var %s (wallet.seed_env) is not set", cfg.SeedEnv)
		}
		seed, err := base58.Decode(seedB58)
		if err != nil {
			return nil, "", fmt.Errorf("%s is not valid base58: %w", cfg.SeedEnv, err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, "", fmt.Errorf("%s decodes to %d bytes, want %d", cfg.SeedEnv, len(seed), ed25519.SeedSize)
		}
		priv := ed25519.NewKeyFromSeed(seed)
		pub := priv.Public().(ed25519.PublicKey)
		kp, err := keys.NewEd25519KeyPair(priv, walletKeyID)
		return kp, base58.Encode(pub), err
	}

	kp, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return nil, "", err
	}
	pub := kp.PublicKey().(ed25519.PublicKey)
	return kp, base58.Encode(pub), nil
}

// newStore constructs the persistence backend named by cfg.Backend,
// wrapping it with the Prometheus-instrumented decorator so every
// operation reports to internal/metrics.
func newStore(ctx context.Context, cfg config.PersistenceConfig) (persistence.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return persistence.NewInstrumented(memory.NewStore()), nil
	case "postgres":
		store, err := postgres.NewStoreFromDSN(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return persistence.NewInstrumented(store), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}

