// Package gemini implements the Google Generative Language provider on the
// genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/agutierrezreginodev/potencia-agenda/internal/codec"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithGeneration sets the sampling parameters sent on every call. A nil
// temperature keeps the backend default.
func WithGeneration(maxTokens int, temperature *float64) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = maxTokens
		p.temperature = temperature
	}
}

// WithName overrides the variant name reported by Name. Empty keeps the type name.
func WithName(name string) ProviderOption {
	return func(p *Provider) {
		if name != "" {
			p.name = name
		}
	}
}

// Provider implements domain.Provider on models.generateContent.
type Provider struct {
	client      *genai.Client
	name        string
	model       string
	timeout     time.Duration
	baseURL     string
	httpClient  *http.Client
	maxTokens   int
	temperature *float64
}

// New creates a new Gemini provider.
func New(ctx context.Context, apiKey, model string, timeout time.Duration, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		name:    ProviderType,
		model:   model,
		timeout: timeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL + "/"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	p.client = client
	return p, nil
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Model() string {
	return p.model
}

func (p *Provider) Timeout() time.Duration {
	return p.timeout
}

func (p *Provider) Complete(ctx context.Context, prompt domain.PromptPair) (*domain.RawCompletion, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt.UserContent, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.SystemInstructions, genai.RoleUser),
	}
	if p.temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*p.temperature))
	}
	if p.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.maxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, p.mapError(err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidModelOutput("empty completion").WithProvider(p.name)
	}

	raw := &domain.RawCompletion{
		Text:      text,
		ModelUsed: resp.ModelVersion,
	}
	if raw.ModelUsed == "" {
		raw.ModelUsed = p.model
	}
	if len(resp.Candidates) > 0 {
		raw.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		raw.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		raw.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return raw, nil
}

// responseText joins the text parts of the first candidate, skipping thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// mapError turns SDK errors into the generation taxonomy. Context errors pass
// through so the caller can tell its own deadline from a provider failure.
func (p *Provider) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return codec.Classify(p.name, apiErr.Code, apiErr.Message).WithCause(err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return codec.Classify(p.name, apiErrPtr.Code, apiErrPtr.Message).WithCause(err)
	}

	return codec.ToGenerationError(p.name, err)
}
