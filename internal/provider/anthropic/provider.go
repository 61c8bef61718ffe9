package anthropic

import (
	"context"
	"net/http"
	"time"

	anthropicapi "github.com/agutierrezreginodev/potencia-agenda/internal/api/anthropic"
	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
)

// defaultMaxTokens is sent when the config leaves max_tokens unset; the
// Messages API requires the field.
const defaultMaxTokens = 4096

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
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

// Provider implements domain.Provider on the Messages API.
type Provider struct {
	client      *anthropicapi.Client
	name        string
	model       string
	timeout     time.Duration
	baseURL     string
	httpClient  *http.Client
	maxTokens   int
	temperature *float64
}

// New creates a new Anthropic provider.
func New(apiKey, model string, timeout time.Duration, opts ...ProviderOption) *Provider {
	p := &Provider{
		name:      ProviderType,
		model:     model,
		timeout:   timeout,
		maxTokens: defaultMaxTokens,
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.maxTokens <= 0 {
		p.maxTokens = defaultMaxTokens
	}

	var clientOpts []anthropicapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, anthropicapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, anthropicapi.WithHTTPClient(p.httpClient))
	}

	p.client = anthropicapi.NewClient(apiKey, clientOpts...)
	return p
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
	req := &anthropicapi.MessagesRequest{
		Model:     p.model,
		System:    prompt.SystemInstructions,
		Messages:  []anthropicapi.Message{{Role: "user", Content: prompt.UserContent}},
		MaxTokens: p.maxTokens,
	}
	if p.temperature != nil {
		t := *p.temperature
		req.Temperature = &t
	}

	resp, err := p.client.CreateMessage(ctx, req)
	if err != nil {
		if genErr, ok := domain.AsGenerationError(err); ok {
			return nil, genErr.WithProvider(p.name)
		}
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, domain.ErrInvalidModelOutput("empty completion").WithProvider(p.name)
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}
	return &domain.RawCompletion{
		Text:             text,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		ModelUsed:        model,
		FinishReason:     resp.StopReason,
	}, nil
}
