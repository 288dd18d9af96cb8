package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/sketchclient/internal/gameapi"
	"github.com/playperu/sketchclient/internal/gameapi/gameapitest"
)

func TestRunRequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	var out bytes.Buffer
	if err := run(context.Background(), &out); err == nil {
		t.Fatal("run succeeded without API_BASE_URL")
	}
}

func TestRunRejectsBadRedisURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("REDIS_URL", "not-a-url")

	var out bytes.Buffer
	if err := run(context.Background(), &out); err == nil {
		t.Fatal("run succeeded with an invalid REDIS_URL")
	}
}

func TestUpstreamChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := (upstreamChecker{srv.URL}).Check(context.Background()); err != nil {
		t.Errorf("reachable server reported down: %v", err)
	}
	if err := (upstreamChecker{"http://127.0.0.1:1"}).Check(context.Background()); err == nil {
		t.Error("unreachable server reported up")
	}
}

func TestPlayerCachePrefix(t *testing.T) {
	backend := gameapitest.New(t)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"no token", "", "sketchclient:player:"},
		{"player token", backend.Token("42"), "sketchclient:player:42:"},
		{"garbage token", "not-a-jwt", "sketchclient:player:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := gameapi.New(backend.URL, gameapi.WithToken(tt.token))
			if got := playerCachePrefix("sketchclient:player:", api); got != tt.want {
				t.Errorf("prefix = %q, want %q", got, tt.want)
			}
		})
	}
}
