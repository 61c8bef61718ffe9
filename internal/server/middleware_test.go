package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agutierrezreginodev/potencia-agenda/internal/auth"
	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a UUID", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", rec.Header().Get("X-Request-ID"), seen)
	}

	incoming := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("incoming id not kept: %q", seen)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid\nforged")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid\nforged" {
		t.Error("malformed incoming id should be replaced")
	}
}

func TestGetRequestID_Empty(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusBadRequest, "WARN"},
		{"server error", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := RequestIDMiddleware(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				AddLogField(r.Context(), "provider", "gemini")
				AddLogField(r.Context(), "ignored", "")
				w.WriteHeader(tt.status)
			})))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/ai/generate", nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log output is not JSON: %q", buf.String())
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v", entry["status"])
			}
			if entry["provider"] != "gemini" {
				t.Errorf("provider field = %v", entry["provider"])
			}
			if _, ok := entry["ignored"]; ok {
				t.Error("empty fields should not be logged")
			}
			if entry["request_id"] == "" {
				t.Error("missing request_id")
			}
		})
	}
}

func TestAddLogField_NoMiddleware(t *testing.T) {
	// must not panic without the fields map
	AddLogField(context.Background(), "k", "v")
	AddError(context.Background(), nil)
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := TimeoutMiddleware(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !ok || time.Until(deadline) > 50*time.Millisecond {
		t.Errorf("deadline = %v, %v", deadline, ok)
	}
}

func TestAuthMiddleware(t *testing.T) {
	authenticator := auth.NewAuthenticator([]config.UserConfig{
		{ID: "user-1", APIKeys: []config.APIKeyConfig{{KeyHash: auth.HashAPIKey("good-key")}}},
	})

	var actor string
	handler := AuthMiddleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = auth.ActorID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  string
	}{
		{"valid", "Bearer good-key", http.StatusNoContent, "user-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"unknown", "Bearer bad-key", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good-key", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor = ""
			req := httptest.NewRequest("POST", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if actor != tt.wantActor {
				t.Errorf("actor = %q, want %q", actor, tt.wantActor)
			}
			if rec.Code == http.StatusUnauthorized {
				var body ErrorBody
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Error.Kind != KindUnauthorized {
					t.Errorf("kind = %q", body.Error.Kind)
				}
			}
		})
	}
}

func TestAuthMiddleware_NilAuthenticator(t *testing.T) {
	called := false
	handler := AuthMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("nil authenticator should pass through")
	}
}

func TestServer_Routes(t *testing.T) {
	authenticator := auth.NewAuthenticator([]config.UserConfig{
		{ID: "u", APIKeys: []config.APIKeyConfig{{KeyHash: auth.HashAPIKey("k")}}},
	})
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	s := New(config.ServerConfig{Port: 0}, logger, authenticator)
	s.Authenticated(func(r chi.Router) {
		r.Get("/private", func(w http.ResponseWriter, r *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]string{"user": auth.ActorID(r.Context())})
		})
	})

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/private", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("private without key = %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer k")
	rec = httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"user":"u"`) {
		t.Errorf("private = %d %s", rec.Code, rec.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusGatewayTimeout, "timeout", "provider call timed out")

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	want := `{"error":{"kind":"timeout","message":"provider call timed out"}}` + "\n"
	if rec.Body.String() != want {
		t.Errorf("body = %q", rec.Body.String())
	}
}
