package jellyfin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sagelink/internal/config"
	"sagelink/internal/services"
)

const refreshTimeout = 30 * time.Second

type httpService struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewConfiguredService returns a service that triggers Jellyfin scans when
// enabled with credentials, or a no-op otherwise.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Jellyfin.Enabled {
		return noopService{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Jellyfin.URL), "/")
	apiKey := strings.TrimSpace(cfg.Jellyfin.APIKey)
	if baseURL == "" || apiKey == "" {
		return noopService{}
	}
	return &httpService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: refreshTimeout},
	}
}

// NewHTTPService constructs an HTTP-backed Jellyfin service.
func NewHTTPService(baseURL, apiKey string, client HTTPDoer) Service {
	if client == nil {
		client = &http.Client{Timeout: refreshTimeout}
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (s *httpService) Enabled() bool {
	return s != nil && s.baseURL != "" && s.apiKey != ""
}

func (s *httpService) Refresh(ctx context.Context) error {
	return s.call(ctx, http.MethodPost, "/Library/Refresh", "refresh library")
}

func (s *httpService) Ping(ctx context.Context) error {
	return s.call(ctx, http.MethodGet, "/System/Info", "check server")
}

func (s *httpService) call(ctx context.Context, method, path, op string) error {
	if !s.Enabled() || s.client == nil {
		return nil
	}
	endpoint := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "jellyfin", op, endpoint, err)
	}
	req.Header.Set("X-Emby-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternal, "jellyfin", op, "", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "jellyfin", op,
			fmt.Sprintf("status %d (check jellyfin.api_key)", resp.StatusCode), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrExternal, "jellyfin", op,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	return nil
}
