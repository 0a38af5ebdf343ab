package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCheckEncoder_ok(t *testing.T) {
	bin := fakeFFmpeg(t, "echo 'ffmpeg version 6.1 Copyright'\necho 'built with gcc'\n")
	v, err := CheckEncoder(context.Background(), bin)
	if err != nil {
		t.Fatalf("CheckEncoder: %v", err)
	}
	if v != "ffmpeg version 6.1 Copyright" {
		t.Errorf("version = %q", v)
	}
}

func TestCheckEncoder_fails(t *testing.T) {
	bin := fakeFFmpeg(t, "exit 1\n")
	if _, err := CheckEncoder(context.Background(), bin); err == nil {
		t.Fatal("expected error for failing encoder")
	}
}

func TestCheckEncoder_missing(t *testing.T) {
	if _, err := CheckEncoder(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing binary")
	}
	if _, err := CheckEncoder(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCheckEndpoints_ok(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	srv := httptest.NewServer(mux)
	defer srv.Close()
	if err := CheckEndpoints(context.Background(), srv.URL+"/"); err != nil {
		t.Fatalf("CheckEndpoints: %v", err)
	}
}

func TestCheckEndpoints_missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	if err := CheckEndpoints(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}
