package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/pkg/config"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
)

// Client calls the Microsoft Graph API to resolve the profile behind a
// delegated access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Graph client from configuration.
func NewClient(cfg config.GraphConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Me fetches the profile of the token holder via GET /me.
//
// A 401 from Graph means the token is expired or malformed and maps to an
// unauthorized error; any other non-200 maps to an upstream error.
func (c *Client) Me(ctx context.Context, accessToken string) (*models.GraphProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, appErrors.ErrUpstream.Wrap(fmt.Errorf("call graph /me: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, appErrors.ErrUnauthorized.WithMessage("identity provider rejected the access token")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("graph /me returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, appErrors.ErrUpstream.WithMessage(fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	var profile models.GraphProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, appErrors.ErrUpstream.Wrap(fmt.Errorf("decode graph profile: %w", err))
	}
	if profile.ID == "" {
		return nil, appErrors.ErrUpstream.WithMessage("identity provider returned an empty profile")
	}
	return &profile, nil
}
