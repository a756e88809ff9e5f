package gameserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gamepub/chain-middleware/pkg/app/errors"
	"github.com/gamepub/chain-middleware/pkg/config"
)

const defaultTimeout = 30 * time.Second

// httpClient implements API against one app's game server base URL.
type httpClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates a game server client for one base URL
func NewHTTPClient(baseURL string, logger *zap.Logger) API {
	return &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// NewRegistryFromConfig builds the app registry from configuration
func NewRegistryFromConfig(apps []config.AppConfig, logger *zap.Logger) *Registry {
	entries := make(map[string]*App, len(apps))
	for _, a := range apps {
		entries[a.AppID] = &App{
			AppID:      a.AppID,
			ServiceFee: a.ServiceFee,
			GameFee:    a.GameFee,
			API:        NewHTTPClient(a.GameServerURL, logger.With(zap.String("app_id", a.AppID))),
		}
	}
	return NewRegistry(entries)
}

func (c *httpClient) ConfirmMint(ctx context.Context, req *ConfirmMintRequest) (*ConfirmMintResponse, error) {
	var resp ConfirmMintResponse
	if err := c.post(ctx, "/items/confirm-mint", req, &resp); err != nil {
		return nil, err
	}
	if resp.UniqueID == "" {
		return nil, apperrors.DependencyError(nil, "game server returned no item id")
	}
	return &resp, nil
}

func (c *httpClient) CommitMint(ctx context.Context, req *CommitMintRequest) error {
	return c.post(ctx, "/items/commit-mint", req, nil)
}

func (c *httpClient) UnlockItem(ctx context.Context, req *UnlockItemRequest) (*UnlockItemResponse, error) {
	var resp UnlockItemResponse
	if err := c.post(ctx, "/items/unlock", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal game server request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build game server request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.DependencyError(err, "game server unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.DependencyError(err, "failed to read game server response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Game server rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return apperrors.DependencyError(
			fmt.Errorf("game server status %d: %s", resp.StatusCode, string(respBody)),
			"game server error")
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.DependencyError(err, "invalid game server response")
	}
	return nil
}
