package provider_test

import (
	"testing"
	"time"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
	"github.com/agutierrezreginodev/potencia-agenda/internal/provider"
	"github.com/agutierrezreginodev/potencia-agenda/internal/registration"
)

func init() {
	registration.RegisterBuiltins()
}

func TestListProviderTypes(t *testing.T) {
	registration.RegisterBuiltins() // idempotent

	types := provider.ListProviderTypes()
	want := []string{"anthropic", "gemini", "openai"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %q, want %q", i, types[i], want[i])
		}
	}

	for _, f := range provider.ListFactories() {
		if f.Description == "" || f.Create == nil {
			t.Errorf("factory %q incomplete", f.Type)
		}
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		cfg  config.ProviderConfig
		want string
	}{
		{config.ProviderConfig{Type: "gemini"}, "markdown"},
		{config.ProviderConfig{Type: "anthropic"}, "markdown"},
		{config.ProviderConfig{Type: "openai"}, "json"},
		{config.ProviderConfig{Type: "openai", Format: "markdown"}, "markdown"},
		{config.ProviderConfig{Type: "unknown"}, "markdown"},
	}
	for _, tt := range tests {
		if got := provider.FormatFor(tt.cfg); got != tt.want {
			t.Errorf("FormatFor(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestValidateProviderConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ProviderConfig
		wantErr bool
	}{
		{"valid gemini", config.ProviderConfig{Type: "gemini", APIKey: "k", Model: "gemini-2.5-flash"}, false},
		{"missing key", config.ProviderConfig{Type: "openai", Model: "gpt-4o-mini"}, true},
		{"missing model", config.ProviderConfig{Type: "anthropic", APIKey: "k"}, true},
		{"bad format", config.ProviderConfig{Type: "gemini", APIKey: "k", Model: "m", Format: "xml"}, true},
		{"unknown type", config.ProviderConfig{Type: "mistral", APIKey: "k", Model: "m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := provider.ValidateProviderConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProviderConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Generation: config.GenerationConfig{Provider: "gemini"},
		Providers: map[string]config.ProviderConfig{
			"gemini":    {Name: "gemini", Type: "gemini", APIKey: "g", Model: "gemini-2.5-flash", Timeout: time.Minute},
			"openai":    {Name: "openai", Type: "openai", APIKey: "o", Model: "gpt-4o-mini", Timeout: time.Minute, Format: "json", StructuredCosts: true},
			"anthropic": {Name: "anthropic", Type: "anthropic", Model: "claude-sonnet-4-5", Timeout: time.Minute},
		},
	}
}

func TestRegistry_CreateProviders(t *testing.T) {
	variants, err := provider.NewRegistry(nil).CreateProviders(testConfig())
	if err != nil {
		t.Fatalf("CreateProviders() error = %v", err)
	}

	if len(variants) != 2 {
		t.Fatalf("variants = %v, want gemini and openai only", variants)
	}
	if _, ok := variants["anthropic"]; ok {
		t.Error("anthropic has no key and should be skipped")
	}

	g := variants["gemini"]
	if g.Provider.Name() != "gemini" || g.Format != "markdown" || g.Provider.Timeout() != time.Minute {
		t.Errorf("gemini variant = %+v", g)
	}
	o := variants["openai"]
	if o.Format != "json" || !o.StructuredCosts {
		t.Errorf("openai variant = %+v", o)
	}
}

func TestRegistry_ActiveProviderMustBuild(t *testing.T) {
	cfg := testConfig()
	cfg.Generation.Provider = "anthropic"

	if _, err := provider.NewRegistry(nil).CreateProviders(cfg); err == nil {
		t.Fatal("expected error for keyless active provider")
	}

	cfg.Generation.Provider = "missing"
	if _, err := provider.NewRegistry(nil).CreateProviders(cfg); err == nil {
		t.Fatal("expected error for unconfigured active provider")
	}
}
