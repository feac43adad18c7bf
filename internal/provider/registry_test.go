package provider

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MockProvider is a test provider implementation
type MockProvider struct {
	name         string
	capabilities ProviderCapabilities
	fields       []Field
	fetchFunc    func(context.Context, FetchRequest) (*Metadata, error)
	configured   bool
}

func (m *MockProvider) Name() string        { return m.name }
func (m *MockProvider) Description() string { return "Mock provider for testing" }
func (m *MockProvider) Capabilities() ProviderCapabilities {
	return m.capabilities
}
func (m *MockProvider) SupportedFields() []Field {
	return m.fields
}
func (m *MockProvider) ConfigSchema() ConfigSchema {
	return ConfigSchema{}
}
func (m *MockProvider) Configure(config map[string]interface{}) error {
	m.configured = true
	return nil
}
func (m *MockProvider) Fetch(ctx context.Context, req FetchRequest) (*Metadata, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, req)
	}
	return nil, nil
}

func movieCaps() ProviderCapabilities {
	return ProviderCapabilities{
		MediaTypes:   []MediaType{MediaTypeMovie},
		IDNamespaces: []string{NamespaceTMDB},
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	mock := &MockProvider{name: "test", capabilities: movieCaps()}

	// Test successful registration
	if err := registry.Register(mock, 100); err != nil {
		t.Errorf("Register() error = %v, want nil", err)
	}

	// Test duplicate registration
	if err := registry.Register(mock, 100); err == nil {
		t.Error("Register() expected error for duplicate, got nil")
	}

	// Names are case-insensitive
	if err := registry.Register(&MockProvider{name: " TEST ", capabilities: movieCaps()}, 1); err == nil {
		t.Error("Register() expected error for duplicate with different case, got nil")
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	t.Parallel()

	tests := map[string]Provider{
		"nil provider": nil,
		"empty name":   &MockProvider{name: "  ", capabilities: movieCaps()},
		"aggregator":   &MockProvider{name: AggregatorName, capabilities: movieCaps()},
		"no namespace": &MockProvider{name: "local", capabilities: ProviderCapabilities{
			MediaTypes: []MediaType{MediaTypeMovie},
		}},
		"tvdb only": &MockProvider{name: "tv", capabilities: ProviderCapabilities{
			MediaTypes:   []MediaType{MediaTypeShow},
			IDNamespaces: []string{NamespaceTVDB},
		}},
		"no media types": &MockProvider{name: "empty", capabilities: ProviderCapabilities{
			IDNamespaces: []string{NamespaceIMDB},
		}},
	}

	for name, prov := range tests {
		name, prov := name, prov
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if err := NewRegistry().Register(prov, 10); err == nil {
				t.Errorf("Register(%s) error = nil, want error", name)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()

	mock := &MockProvider{name: "test", capabilities: movieCaps()}
	if err := registry.Register(mock, 100); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Test getting existing provider
	p, exists := registry.Get("test")
	if !exists {
		t.Error("Get() exists = false, want true")
	}
	if p == nil {
		t.Error("Get() provider = nil, want non-nil")
	}

	// Test getting non-existent provider
	_, exists = registry.Get("nonexistent")
	if exists {
		t.Error("Get() exists = true, want false")
	}
}

func TestRegistry_List(t *testing.T) {
	registry := NewRegistry()

	registry.Register(&MockProvider{name: "low", capabilities: movieCaps()}, 50)
	registry.Register(&MockProvider{name: "high", capabilities: movieCaps()}, 100)
	registry.Register(&MockProvider{name: "also-low", capabilities: movieCaps()}, 50)

	want := []string{"high", "also-low", "low"}
	if diff := cmp.Diff(want, registry.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Enable(t *testing.T) {
	registry := NewRegistry()

	mock := &MockProvider{name: "test", capabilities: movieCaps()}
	registry.Register(mock, 100)

	if registry.IsEnabled("test") {
		t.Error("IsEnabled() = true before Enable, want false")
	}

	// Test enabling provider
	if err := registry.Enable("test"); err != nil {
		t.Errorf("Enable() error = %v, want nil", err)
	}
	if !registry.IsEnabled("test") {
		t.Error("IsEnabled() = false, want true")
	}

	if err := registry.Disable("test"); err != nil {
		t.Errorf("Disable() error = %v, want nil", err)
	}
	if registry.IsEnabled("test") {
		t.Error("IsEnabled() = true after Disable, want false")
	}

	// Test enabling non-existent provider
	if err := registry.Enable("nonexistent"); err == nil {
		t.Error("Enable() expected error for nonexistent provider, got nil")
	}
}

func TestRegistry_EnableRequiresConfiguration(t *testing.T) {
	registry := NewRegistry()

	caps := movieCaps()
	caps.RequiresAuth = true
	mock := &MockProvider{name: "auth", capabilities: caps}
	registry.Register(mock, 100)

	if err := registry.Enable("auth"); err == nil {
		t.Fatal("Enable() expected error for unconfigured provider, got nil")
	}

	if err := registry.Configure("auth", map[string]interface{}{"api_key": "k"}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := registry.Enable("auth"); err != nil {
		t.Errorf("Enable() error = %v after Configure, want nil", err)
	}
}

func TestRegistry_Configure(t *testing.T) {
	registry := NewRegistry()

	mock := &MockProvider{name: "test", capabilities: movieCaps()}
	registry.Register(mock, 100)

	// Test configuring provider
	config := map[string]interface{}{
		"api_key": "test-key",
	}
	if err := registry.Configure("test", config); err != nil {
		t.Errorf("Configure() error = %v, want nil", err)
	}

	if !mock.configured {
		t.Error("Provider not configured")
	}

	// Test configuring non-existent provider
	if err := registry.Configure("nonexistent", config); err == nil {
		t.Error("Configure() expected error for nonexistent provider, got nil")
	}
}

func TestValidateCapabilities(t *testing.T) {
	// Test valid capabilities
	if err := ValidateCapabilities(movieCaps()); err != nil {
		t.Errorf("ValidateCapabilities() error = %v, want nil", err)
	}

	// Test missing media types
	caps := ProviderCapabilities{IDNamespaces: []string{NamespaceIMDB}}
	if err := ValidateCapabilities(caps); err == nil {
		t.Error("ValidateCapabilities() expected error for no media types, got nil")
	}

	// Required namespace must be one the provider understands
	caps = ProviderCapabilities{
		MediaTypes:   []MediaType{MediaTypeMovie},
		IDNamespaces: []string{NamespaceTMDB},
		RequiredID:   NamespaceIMDB,
	}
	if err := ValidateCapabilities(caps); err == nil {
		t.Error("ValidateCapabilities() expected error for foreign required namespace, got nil")
	}
}

func TestValidID(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		namespace string
		value     string
		want      bool
	}{
		"imdb valid":        {NamespaceIMDB, "tt0133093", true},
		"imdb eight digits": {NamespaceIMDB, "tt10872600", true},
		"imdb no prefix":    {NamespaceIMDB, "0133093", false},
		"imdb short":        {NamespaceIMDB, "tt123", false},
		"tmdb valid":        {NamespaceTMDB, "603", true},
		"tmdb zero":         {NamespaceTMDB, "0", false},
		"tmdb text":         {NamespaceTMDB, "tt0133093", false},
		"tvdb valid":        {NamespaceTVDB, "81189", true},
		"blank":             {NamespaceTMDB, "  ", false},
		"other namespace":   {"trakt", "the-matrix", true},
	}

	for name, tc := range tests {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := ValidID(tc.namespace, tc.value); got != tc.want {
				t.Errorf("ValidID(%q, %q) = %v, want %v", tc.namespace, tc.value, got, tc.want)
			}
		})
	}
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{
		Provider:   "tmdb",
		Code:       "RATE_LIMITED",
		Message:    "API rate limit exceeded",
		Retry:      true,
		RetryAfter: 10,
	}

	if diff := cmp.Diff("API rate limit exceeded", err.Error()); diff != "" {
		t.Errorf("Error() mismatch (-want +got):\n%s", diff)
	}

	if !err.Retry {
		t.Error("Retry = false, want true")
	}
}
