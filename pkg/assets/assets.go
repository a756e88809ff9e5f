// Package assets uploads token metadata to the asset storage service and
// returns the resulting token URI.
package assets

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

// Metadata is the token metadata document stored for an NFT.
type Metadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// Uploader stores token metadata and returns its URI.
type Uploader interface {
	UploadMetadata(ctx context.Context, tokenID string, meta *Metadata) (string, error)
}

type httpUploader struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewUploader creates an HTTP uploader against the asset storage service
func NewUploader(cfg *config.AssetsConfig, logger *zap.Logger) Uploader {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpUploader{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type uploadResponse struct {
	URI string `json:"uri"`
}

func (u *httpUploader) UploadMetadata(ctx context.Context, tokenID string, meta *Metadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/metadata/%s", u.baseURL, tokenID), bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", apperrors.DependencyError(err, "asset storage unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to read asset storage response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.DependencyError(
			fmt.Errorf("asset storage status %d: %s", resp.StatusCode, string(body)),
			"asset storage error")
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", apperrors.DependencyError(err, "invalid asset storage response")
	}
	if out.URI == "" {
		return "", apperrors.DependencyError(nil, "asset storage returned no uri")
	}

	u.logger.Debug("Uploaded token metadata",
		zap.String("token_id", tokenID),
		zap.String("uri", out.URI))
	return out.URI, nil
}
