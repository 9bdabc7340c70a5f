package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cookscabinet/cabinet/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrDownloadTooLarge is returned when a download exceeds the size limit
var ErrDownloadTooLarge = errors.New("image exceeds size limit")

// FetcherConfig configures image downloads
type FetcherConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

// HTTPFetcher downloads generated images
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

var _ outbound.ImageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher with a traced transport
func NewHTTPFetcher(cfg FetcherConfig, logger *zap.Logger) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes: maxBytes,
		logger:   logger.Named("image-fetcher"),
	}
}

// Fetch downloads url and checks that the body is a supported image
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, ErrDownloadTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrDownloadTooLarge
	}

	if _, err := Sniff(data); err != nil {
		return nil, err
	}

	f.logger.Debug("Image downloaded",
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)

	return data, nil
}
