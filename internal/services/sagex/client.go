package sagex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sagelink/internal/catalog"
	"sagelink/internal/config"
	"sagelink/internal/logging"
	"sagelink/internal/services"
)

const defaultPageSize = 100

// HTTPDoer describes the HTTP client used by the SageX client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads the media catalog from a SageTV server's SageX API.
type Client struct {
	baseURL  string
	user     string
	password string
	pageSize int
	client   HTTPDoer
	logger   *slog.Logger
}

// NewFromConfig builds a client for the configured SageTV server.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.SageX.TimeoutSeconds) * time.Second
	return New(cfg.SageXBaseURL(), cfg.SageX.User, cfg.SageX.Password, cfg.SageX.PageSize,
		&http.Client{Timeout: timeout}, logger)
}

// New constructs a client. baseURL is the full API endpoint, for example
// http://sagetv:8080/sagex/api.
func New(baseURL, user, password string, pageSize int, client HTTPDoer, logger *slog.Logger) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		user:     user,
		password: password,
		pageSize: pageSize,
		client:   client,
		logger:   logging.NewComponentLogger(logger, "sagex"),
	}
}

// FetchAll pages through GetMediaFiles and returns every record in server
// order. Any failed page fails the whole fetch so a partial catalog is never
// mistaken for deletions.
func (c *Client) FetchAll(ctx context.Context) ([]catalog.Record, error) {
	var records []catalog.Record
	for start := 0; ; start += c.pageSize {
		page, err := c.fetchPage(ctx, start, c.pageSize)
		if err != nil {
			return nil, err
		}
		for _, mf := range page {
			records = append(records, mf.toRecord())
		}
		c.logger.Debug("fetched catalog page",
			logging.Int("start", start),
			logging.Int("count", len(page)),
		)
		if len(page) < c.pageSize {
			break
		}
	}
	c.logger.Info("catalog fetched",
		logging.String(logging.FieldEventType, "catalog_fetched"),
		logging.Int("records", len(records)),
	)
	return records, nil
}

// Ping requests a single-record page to confirm the server is reachable and
// the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.fetchPage(ctx, 0, 1)
	return err
}

func (c *Client) fetchPage(ctx context.Context, start, size int) ([]mediaFile, error) {
	params := url.Values{}
	params.Set("command", "GetMediaFiles")
	params.Set("format", "xml")
	params.Set("size", strconv.Itoa(size))
	params.Set("start", strconv.Itoa(start))
	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sagex", "build request", c.baseURL, err)
	}
	req.Header.Set("Accept", "application/xml")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "sagex", "fetch page", fmt.Sprintf("start=%d", start), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		detail := fmt.Sprintf("start=%d: status %d: %s", start, resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, services.Wrap(services.ErrConfiguration, "sagex", "fetch page", detail+" (check sagex.user and sagex.password)", nil)
		}
		return nil, services.Wrap(services.ErrExternal, "sagex", "fetch page", detail, nil)
	}

	var list mediaFileList
	if err := xml.NewDecoder(resp.Body).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrExternal, "sagex", "decode page", fmt.Sprintf("start=%d", start), err)
	}
	return list.MediaFiles, nil
}
