package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	anthropicapi "github.com/agutierrezreginodev/potencia-agenda/internal/api/anthropic"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

func TestProvider_Complete(t *testing.T) {
	var got anthropicapi.MessagesRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929","content":[{"type":"text","text":"## Resumen Ejecutivo\nTexto"}],"stop_reason":"end_turn","usage":{"input_tokens":90,"output_tokens":12}}`))
	}))
	defer ts.Close()

	p := New("ak", "claude-sonnet-4-5", 5*time.Minute, WithBaseURL(ts.URL), WithGeneration(0, temperature(0.7)))
	raw, err := p.Complete(context.Background(), domain.PromptPair{SystemInstructions: "sys", UserContent: "user"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if raw.Text != "## Resumen Ejecutivo\nTexto" {
		t.Errorf("Text = %q", raw.Text)
	}
	if raw.PromptTokens != 90 || raw.CompletionTokens != 12 {
		t.Errorf("tokens = %d/%d", raw.PromptTokens, raw.CompletionTokens)
	}
	if raw.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q", raw.FinishReason)
	}
	if got.System != "sys" || got.MaxTokens != defaultMaxTokens {
		t.Errorf("request = %+v", got)
	}
	if p.Name() != ProviderType {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestProvider_InvalidKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer ts.Close()

	p := New("bad", "claude-sonnet-4-5", time.Minute, WithBaseURL(ts.URL))
	_, err := p.Complete(context.Background(), domain.PromptPair{UserContent: "x"})

	genErr, ok := domain.AsGenerationError(err)
	if !ok || genErr.Kind != domain.ErrorKindInvalidCredentials {
		t.Fatalf("err = %v, want invalid_credentials", err)
	}
}

func temperature(v float64) *float64 { return &v }

func TestProvider_ZeroTemperatureIsSent(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"id":"m1","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"ok"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer ts.Close()

	p := New("ak", "m", time.Minute, WithBaseURL(ts.URL), WithGeneration(0, temperature(0)))
	if _, err := p.Complete(context.Background(), domain.PromptPair{UserContent: "x"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if v, ok := body["temperature"]; !ok || v != float64(0) {
		t.Errorf("temperature = %v (present %v), want 0", v, ok)
	}
}
