package fauxregistry

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestServerServeAndShutdown(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := NewServer(0, handler, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		cancel()
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	var started bool
	for _, e := range hook.AllEntries() {
		if e.Message == "started" {
			started = true
		}
	}
	if !started {
		t.Error("expected started log entry")
	}
}

func TestServerAddr(t *testing.T) {
	srv := NewServer(8043, http.NotFoundHandler(), nil)
	if srv.Addr() != ":8043" {
		t.Errorf("Addr = %q, want :8043", srv.Addr())
	}
}

func TestServerRunPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	logger, _ := test.NewNullLogger()
	srv := NewServer(port, http.NotFoundHandler(), logger)
	if err := srv.Run(context.Background()); err == nil {
		t.Error("expected error binding a port already in use")
	}
}
