package auth

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
)

func TestAuthenticator_ValidateAPIKey(t *testing.T) {
	a := NewAuthenticator([]config.UserConfig{
		{ID: "u1", Name: "Ana", APIKeys: []config.APIKeyConfig{{KeyHash: HashAPIKey("secret-1")}}},
		{ID: "u2", Name: "Luis", APIKeys: []config.APIKeyConfig{
			{KeyHash: strings.ToUpper(HashAPIKey("secret-2"))},
			{KeyHash: HashAPIKey("secret-3")},
		}},
	})

	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}

	tests := []struct {
		key     string
		wantID  string
		wantErr bool
	}{
		{"secret-1", "u1", false},
		{"secret-2", "u2", false},
		{"secret-3", "u2", false},
		{"nope", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		u, err := a.ValidateAPIKey(tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if err == nil && u.ID != tt.wantID {
			t.Errorf("ValidateAPIKey(%q) = %s, want %s", tt.key, u.ID, tt.wantID)
		}
	}
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc ", "abc", false},
		{"", "", true},
		{"abc", "", true},
		{"Basic abc", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := ExtractAPIKey(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ExtractAPIKey(%q) = %q, %v", tt.header, got, err)
		}
	}
}

func TestGenerateAPIKey(t *testing.T) {
	k1, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	k2, _ := GenerateAPIKey()

	if !strings.HasPrefix(k1, "pa_") || len(k1) != 3+48 {
		t.Errorf("key = %q", k1)
	}
	if k1 == k2 {
		t.Error("keys should differ")
	}
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	if ActorID(ctx) != "" || UserFromContext(ctx) != nil {
		t.Fatal("empty context should have no user")
	}

	ctx = WithUser(ctx, &User{ID: "u1"})
	if ActorID(ctx) != "u1" {
		t.Errorf("ActorID() = %q", ActorID(ctx))
	}
}
