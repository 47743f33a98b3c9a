// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/callboard/callboard/lib/clock"
	"github.com/callboard/callboard/lib/config"
	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/lib/secret"
	"github.com/callboard/callboard/lib/service"
	"github.com/callboard/callboard/messaging"
)

// version is stamped by the build; "devel" for local builds.
var version = "devel"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    string
		homeserverURL string
		showVersion   bool
	)

	flag.StringVar(&configPath, "config", "", "path to callboard.yaml (default: $CALLBOARD_CONFIG)")
	flag.StringVar(&homeserverURL, "homeserver", "", "override the homeserver URL from the config file")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("callboard-bot %s\n", version)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if homeserverURL != "" {
		cfg.HomeserverURL = homeserverURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	userID, err := service.ValidateSession(ctx, session)
	if err != nil {
		return err
	}
	logger.Info("matrix session valid", "user_id", userID)

	roomID, err := resolveRoom(ctx, session, cfg.Room)
	if err != nil {
		return err
	}
	if _, err := session.JoinRoom(ctx, roomID); err != nil {
		return fmt.Errorf("joining room %s: %w", roomID, err)
	}
	logger.Info("job room ready", "room_id", roomID)

	clk := clock.Real()
	bot := NewBot(session, jobstore.NewFileStore(cfg.StorePath), cfg, roomID, userID, clk, logger)

	// Perform initial /sync to obtain the since token and seed the
	// reaction index from recent history.
	sinceToken, err := bot.initialSync(ctx)
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	// Start the operator socket if configured.
	var socketDone chan error
	if cfg.SocketPath != "" {
		socketServer := service.NewSocketServer(cfg.SocketPath, logger)
		bot.registerActions(socketServer)
		socketDone = make(chan error, 1)
		go func() {
			socketDone <- socketServer.Serve(ctx)
		}()
	}

	go service.RunSyncLoop(ctx, session, service.SyncConfig{
		Filter: syncFilter,
	}, sinceToken, bot.handleSync, clk, logger)

	logger.Info("callboard bot running",
		"room", roomID,
		"store", cfg.StorePath,
		"socket", cfg.SocketPath,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if socketDone != nil {
		if err := <-socketDone; err != nil {
			logger.Error("socket server error", "error", err)
		}
	}

	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// connect restores the saved session from the state directory. When no
// session file exists yet, it falls back to a password login using the
// CALLBOARD_USER and CALLBOARD_PASSWORD environment variables and
// saves the resulting session for subsequent starts.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*messaging.DirectSession, error) {
	_, session, err := service.LoadSession(cfg.StateDir, cfg.HomeserverURL, logger)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	username := os.Getenv("CALLBOARD_USER")
	passwordText := os.Getenv("CALLBOARD_PASSWORD")
	if username == "" || passwordText == "" {
		return nil, fmt.Errorf("no session in %s and CALLBOARD_USER/CALLBOARD_PASSWORD not set", cfg.StateDir)
	}

	password, err := secret.NewFromBytes([]byte(passwordText))
	if err != nil {
		return nil, fmt.Errorf("protecting password: %w", err)
	}
	defer password.Close()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	session, err = client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		session.Close()
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	if err := service.SaveSession(cfg.StateDir, cfg.HomeserverURL, session); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// resolveRoom turns the configured room (alias or raw ID) into a room ID.
func resolveRoom(ctx context.Context, session messaging.Session, room string) (ref.RoomID, error) {
	if strings.HasPrefix(room, "#") {
		alias, err := ref.ParseRoomAlias(room)
		if err != nil {
			return ref.RoomID{}, fmt.Errorf("invalid room alias: %w", err)
		}
		roomID, err := session.ResolveAlias(ctx, alias)
		if err != nil {
			return ref.RoomID{}, fmt.Errorf("resolving room alias %s: %w", alias, err)
		}
		return roomID, nil
	}
	roomID, err := ref.ParseRoomID(room)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("invalid room: %w", err)
	}
	return roomID, nil
}
