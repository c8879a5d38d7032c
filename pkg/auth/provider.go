package auth

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ProviderAdapter hides the differences between OAuth identity providers.
type ProviderAdapter interface {
	// ProviderID returns the stable provider name used in routes and records.
	ProviderID() string
	// AuthURL builds the consent URL carrying state.
	AuthURL(state string) string
	// ExchangeIdentity trades an authorization code for a normalized identity.
	// Errors wrap ErrProviderExchangeFailed or ErrProviderProfileFailed.
	ExchangeIdentity(ctx context.Context, code string) (Identity, error)
}

// providerTimeout bounds every outbound provider request.
const providerTimeout = 10 * time.Second

func newProviderClient() *http.Client {
	return &http.Client{Timeout: providerTimeout}
}

// Providers is a registry of configured adapters keyed by provider id.
type Providers map[string]ProviderAdapter

// NewProviders registers adapters, skipping nil entries.
func NewProviders(adapters ...ProviderAdapter) Providers {
	p := make(Providers, len(adapters))
	for _, a := range adapters {
		if a != nil {
			p[a.ProviderID()] = a
		}
	}
	return p
}

// Get returns the adapter for name or ErrUnknownProvider.
func (p Providers) Get(name string) (ProviderAdapter, error) {
	a, ok := p[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return a, nil
}

// Names returns the registered provider ids in sorted order.
func (p Providers) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
