package jellyfin

import (
	"context"
	"net/http"
)

// Service triggers Jellyfin library scans after the tree changes.
type Service interface {
	Refresh(ctx context.Context) error
	// Ping verifies the server is reachable and accepts the API key.
	Ping(ctx context.Context) error
	Enabled() bool
}

// HTTPDoer describes the HTTP client used by the Jellyfin service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type noopService struct{}

func (noopService) Refresh(context.Context) error { return nil }

func (noopService) Ping(context.Context) error { return nil }

func (noopService) Enabled() bool { return false }
