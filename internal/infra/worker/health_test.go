package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"
)

func startHealthServer(t *testing.T, addr string) (*HealthServer, context.CancelFunc) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer(addr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("unexpected server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		time.Sleep(50 * time.Millisecond)
	})

	return server, cancel
}

func getStatus(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec // local test server
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("close body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out healthResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal %q: %v", body, err)
	}
	return resp.StatusCode, out.Status
}

func TestHealthServer_Liveness(t *testing.T) {
	startHealthServer(t, "localhost:19091")

	code, status := getStatus(t, "http://localhost:19091/health")
	if code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
	if status != "ok" {
		t.Errorf("body status = %q, want ok", status)
	}
}

func TestHealthServer_ReadinessTransitions(t *testing.T) {
	server, _ := startHealthServer(t, "localhost:19092")

	code, status := getStatus(t, "http://localhost:19092/health/ready")
	if code != http.StatusServiceUnavailable || status != "not ready" {
		t.Errorf("initial = %d %q, want 503 'not ready'", code, status)
	}

	server.SetReady(true)
	code, status = getStatus(t, "http://localhost:19092/health/ready")
	if code != http.StatusOK || status != "ok" {
		t.Errorf("after SetReady(true) = %d %q, want 200 ok", code, status)
	}

	server.SetReady(false)
	code, _ = getStatus(t, "http://localhost:19092/health/ready")
	if code != http.StatusServiceUnavailable {
		t.Errorf("after SetReady(false) = %d, want 503", code)
	}
}

func TestHealthServer_GracefulShutdown(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19095", logger)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- server.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if resp, err := http.Get("http://localhost:19095/health"); err != nil {
		t.Fatalf("server not running: %v", err)
	} else if err := resp.Body.Close(); err != nil {
		t.Errorf("close body: %v", err)
	}

	cancel()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown timeout")
	}

	if _, err := http.Get("http://localhost:19095/health"); err == nil {
		t.Error("expected connection error after shutdown")
	}
}

func TestNewHealthServer_StartsNotReady(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer(":9091", logger)

	if server.addr != ":9091" {
		t.Errorf("addr = %q, want :9091", server.addr)
	}
	if server.isReady.Load() {
		t.Error("server should start not ready")
	}

	server.SetReady(true)
	if !server.isReady.Load() {
		t.Error("SetReady(true) not applied")
	}
}
