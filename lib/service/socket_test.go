// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/callboard/callboard/lib/codec"
)

// startSocketServer serves the given server in the background and
// waits for the socket file to appear.
func startSocketServer(t *testing.T, server *SocketServer, socketPath string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after cancellation")
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", socketPath); err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("socket never became dialable")
}

// roundTrip sends one CBOR request and decodes the response.
func roundTrip(t *testing.T, socketPath string, request any) Response {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dialing socket: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Fatalf("encoding request: %v", err)
	}
	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return response
}

func TestSocketServer(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "operator.sock")
	server := NewSocketServer(socketPath, slog.Default())

	server.Handle("status", func(context.Context, []byte) (any, error) {
		return map[string]any{"jobs": 3}, nil
	})
	server.Handle("ping", func(context.Context, []byte) (any, error) {
		return nil, nil
	})
	server.Handle("fail", func(context.Context, []byte) (any, error) {
		return nil, errors.New("store unavailable")
	})
	server.Handle("echo", func(_ context.Context, raw []byte) (any, error) {
		var request struct {
			Action string `cbor:"action"`
			Text   string `cbor:"text"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]string{"text": request.Text}, nil
	})

	startSocketServer(t, server, socketPath)

	t.Run("data response", func(t *testing.T) {
		response := roundTrip(t, socketPath, map[string]any{"action": "status"})
		if !response.OK {
			t.Fatalf("response not OK: %s", response.Error)
		}
		var data struct {
			Jobs int `cbor:"jobs"`
		}
		if err := codec.Unmarshal(response.Data, &data); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if data.Jobs != 3 {
			t.Errorf("jobs = %d", data.Jobs)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		response := roundTrip(t, socketPath, map[string]any{"action": "ping"})
		if !response.OK {
			t.Fatalf("response not OK: %s", response.Error)
		}
		if len(response.Data) != 0 {
			t.Errorf("unexpected data: %x", response.Data)
		}
	})

	t.Run("handler error", func(t *testing.T) {
		response := roundTrip(t, socketPath, map[string]any{"action": "fail"})
		if response.OK {
			t.Fatal("expected failure response")
		}
		if response.Error != "store unavailable" {
			t.Errorf("error = %q", response.Error)
		}
	})

	t.Run("request fields reach handler", func(t *testing.T) {
		response := roundTrip(t, socketPath, map[string]any{"action": "echo", "text": "hello"})
		if !response.OK {
			t.Fatalf("response not OK: %s", response.Error)
		}
		var data struct {
			Text string `cbor:"text"`
		}
		if err := codec.Unmarshal(response.Data, &data); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if data.Text != "hello" {
			t.Errorf("text = %q", data.Text)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		response := roundTrip(t, socketPath, map[string]any{"action": "bogus"})
		if response.OK {
			t.Fatal("expected failure response")
		}
	})

	t.Run("missing action", func(t *testing.T) {
		response := roundTrip(t, socketPath, map[string]any{"text": "x"})
		if response.OK {
			t.Fatal("expected failure response")
		}
	})
}

func TestSocketServerDuplicateHandlerPanics(t *testing.T) {
	server := NewSocketServer(filepath.Join(t.TempDir(), "s.sock"), slog.Default())
	server.Handle("status", func(context.Context, []byte) (any, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate handler")
		}
	}()
	server.Handle("status", func(context.Context, []byte) (any, error) { return nil, nil })
}

func TestSocketServerRemovesStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "operator.sock")

	// Leave a stale file at the socket path; Go unlinks real sockets
	// on listener close, so fake the leftover with a plain file.
	if err := os.WriteFile(socketPath, nil, 0600); err != nil {
		t.Fatalf("creating stale socket file: %v", err)
	}

	server := NewSocketServer(socketPath, slog.Default())
	server.Handle("ping", func(context.Context, []byte) (any, error) { return nil, nil })
	startSocketServer(t, server, socketPath)

	response := roundTrip(t, socketPath, map[string]any{"action": "ping"})
	if !response.OK {
		t.Fatalf("response not OK: %s", response.Error)
	}
}
