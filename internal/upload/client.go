package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pragyanetra/console/internal/config"
	"github.com/pragyanetra/console/internal/logging"
)

// Client errors
var (
	ErrAssetTooLarge    = errors.New("asset exceeds the size ceiling")
	ErrInvalidAssetType = errors.New("asset is not an image")
	ErrUploadRejected   = errors.New("upload rejected by the asset store")
)

// Asset is one binary asset to upload.
type Asset struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validate checks the constraints that are intrinsic to the asset itself.
// The byte ceiling is configuration owned by the Client, so it is enforced
// there, not here.
func (a Asset) Validate() error {
	if !strings.HasPrefix(a.ContentType, "image/") {
		return ErrInvalidAssetType
	}
	return nil
}

// Result is the asset store's acknowledgment: a stable content URL plus the
// store's own metadata for the normalized asset.
type Result struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Client sends binary assets to the external transformation/storage service.
// Validation happens client-side before any network call; the upload itself
// is one call with one outcome, never retried here.
type Client struct {
	endpoint   string
	folder     string
	maxBytes   int64
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates an upload client from configuration.
func NewClient(cfg *config.UploadConfig) *Client {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 3 * 1024 * 1024
	}
	return &Client{
		endpoint: cfg.Endpoint,
		folder:   cfg.Folder,
		maxBytes: maxBytes,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logging.NewLogger("upload"),
	}
}

// Validate checks the asset against the client-side constraints without
// touching the network. Fail fast: no round trip is wasted on an asset the
// store would reject anyway.
func (c *Client) Validate(asset Asset) error {
	if !strings.HasPrefix(asset.ContentType, "image/") {
		return ErrInvalidAssetType
	}
	if int64(len(asset.Data)) > c.maxBytes {
		return fmt.Errorf("%w: %d bytes, ceiling %d", ErrAssetTooLarge, len(asset.Data), c.maxBytes)
	}
	return nil
}

// Upload validates and sends one asset, returning the stable content URL the
// store assigned after normalization.
func (c *Client) Upload(ctx context.Context, asset Asset) (*Result, error) {
	if err := c.Validate(asset); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", asset.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(asset.Data); err != nil {
		return nil, fmt.Errorf("failed to write asset body: %w", err)
	}
	if err := writer.WriteField("folder", c.folder); err != nil {
		return nil, fmt.Errorf("failed to write folder field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload transport error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("filename", asset.Filename).
			Msg("Asset store rejected upload")
		return nil, fmt.Errorf("%w: status %d: %s", ErrUploadRejected, resp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload response: %w", err)
	}
	if result.SecureURL == "" {
		return nil, fmt.Errorf("%w: response missing secure_url", ErrUploadRejected)
	}

	c.log.Info().
		Str("public_id", result.PublicID).
		Int("width", result.Width).
		Int("height", result.Height).
		Msg("Asset uploaded")

	return &result, nil
}
