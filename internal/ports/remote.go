package ports

import (
	"context"
	"time"
)

// RemoteItem is one flat object as returned by the remote API.
type RemoteItem map[string]any

// RemoteSettings is passed explicitly on every invocation.
type RemoteSettings struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type RemoteSource interface {
	FetchPage(ctx context.Context, endpoint string, offset int, limit int) ([]RemoteItem, error)
}

// RemoteSourceFactory builds a source for one invocation.
type RemoteSourceFactory func(settings RemoteSettings) (RemoteSource, error)
