package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	p, err := New(context.Background(), "test-key", "gemini-2.5-flash", time.Minute,
		WithBaseURL(ts.URL),
		WithHTTPClient(ts.Client()),
		WithGeneration(8192, temperature(0.7)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

var prompt = domain.PromptPair{
	SystemInstructions: "Eres un consultor.",
	UserContent:        "Solicitud del cliente:\n\nNecesito automatizar citas.",
}

func TestProvider_Complete(t *testing.T) {
	var body map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if key := r.Header.Get("x-goog-api-key"); key != "test-key" {
			t.Errorf("x-goog-api-key = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "## Resumen Ejecutivo\n"}, {"text": "Usar Calendly."}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 120, "candidatesTokenCount": 30, "totalTokenCount": 150},
			"modelVersion": "gemini-2.5-flash-001"
		}`))
	})

	raw, err := p.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if raw.Text != "## Resumen Ejecutivo\nUsar Calendly." {
		t.Errorf("Text = %q", raw.Text)
	}
	if raw.PromptTokens != 120 || raw.CompletionTokens != 30 {
		t.Errorf("tokens = %d/%d, want 120/30", raw.PromptTokens, raw.CompletionTokens)
	}
	if raw.ModelUsed != "gemini-2.5-flash-001" {
		t.Errorf("ModelUsed = %q", raw.ModelUsed)
	}
	if raw.FinishReason != "STOP" {
		t.Errorf("FinishReason = %q", raw.FinishReason)
	}
	if _, ok := body["systemInstruction"]; !ok {
		t.Errorf("request has no systemInstruction: %v", body)
	}
	gen, _ := body["generationConfig"].(map[string]any)
	if gen["maxOutputTokens"] != float64(8192) {
		t.Errorf("generationConfig = %v", gen)
	}
}

func TestProvider_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domain.ErrorKind
	}{
		{
			name:     "bad api key",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`,
			wantKind: domain.ErrorKindInvalidCredentials,
		},
		{
			name:     "quota",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind: domain.ErrorKindQuotaExceeded,
		},
		{
			name:     "unknown model",
			status:   http.StatusNotFound,
			body:     `{"error":{"code":404,"message":"models/gemini-9 is not found for API version v1beta","status":"NOT_FOUND"}}`,
			wantKind: domain.ErrorKindModelUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Complete(context.Background(), prompt)
			genErr, ok := domain.AsGenerationError(err)
			if !ok {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if genErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", genErr.Kind, tt.wantKind)
			}
			if genErr.Provider != ProviderType {
				t.Errorf("Provider = %q", genErr.Provider)
			}
		})
	}
}

func TestProvider_EmptyCompletion(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]},"finishReason":"MAX_TOKENS"}]}`))
	})

	_, err := p.Complete(context.Background(), prompt)
	genErr, ok := domain.AsGenerationError(err)
	if !ok || genErr.Kind != domain.ErrorKindInvalidModelOutput {
		t.Fatalf("err = %v, want invalid_model_output", err)
	}
}

func TestProvider_DeadlinePassesThrough(t *testing.T) {
	release := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Complete(ctx, prompt)
	if err == nil {
		t.Fatal("expected an error")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want deadline exceeded", ctx.Err())
	}
	if genErr, ok := domain.AsGenerationError(err); ok && genErr.Kind != domain.ErrorKindUnknownProvider {
		t.Errorf("deadline classified as %q", genErr.Kind)
	}
}

func temperature(v float64) *float64 { return &v }

func TestProvider_ZeroTemperatureIsSent(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`))
	}))
	t.Cleanup(ts.Close)

	p, err := New(context.Background(), "test-key", "gemini-2.5-flash", time.Minute,
		WithBaseURL(ts.URL),
		WithHTTPClient(ts.Client()),
		WithGeneration(0, temperature(0)),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := p.Complete(context.Background(), prompt); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	gen, _ := body["generationConfig"].(map[string]any)
	if v, ok := gen["temperature"]; !ok || v != float64(0) {
		t.Errorf("generationConfig = %v, want temperature 0", gen)
	}
}
