package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// StorageClient talks to the storage service that owns uploaded
// documents and their extracted text. Extraction itself happens on that
// side; this client only downloads the result.
type StorageClient interface {
	FetchText(ctx context.Context, sourceLocator, contentType string) (string, error)
}

type storageClient struct {
	baseURL      string
	textEndpoint string
	client       *http.Client
	retryCount   int
	retryDelay   time.Duration
	logger       zerolog.Logger
}

func NewStorageClient(baseURL, textEndpoint string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) StorageClient {
	return &storageClient{
		baseURL:      baseURL,
		textEndpoint: textEndpoint,
		client:       &http.Client{Timeout: timeout},
		retryCount:   retryCount,
		retryDelay:   retryDelay,
		logger:       logger,
	}
}

type textResponse struct {
	Text string `json:"text"`
}

func (c *storageClient) FetchText(ctx context.Context, sourceLocator, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s%s?locator=%s&content_type=%s",
		c.baseURL,
		c.textEndpoint,
		url.QueryEscape(sourceLocator),
		url.QueryEscape(contentType),
	)

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		text, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return text, nil
		}
		lastErr = err

		c.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Str("locator", sourceLocator).
			Msg("Failed to fetch extracted text, retrying")
	}

	return "", fmt.Errorf("failed to fetch extracted text after %d attempts: %w", c.retryCount+1, lastErr)
}

func (c *storageClient) fetchOnce(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage service returned status %d", resp.StatusCode)
	}

	var body textResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode storage response: %w", err)
	}

	return body.Text, nil
}
