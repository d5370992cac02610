// Package classifier talks to the external statistical pattern classifier.
//
// Training and inference live in a separate model service; this package only extracts
// the feature vector and carries it over HTTP.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"algoscope/internal/config"
	"algoscope/internal/errors"
	"algoscope/internal/patterns"
	"algoscope/internal/slogutil"
)

// maxResponseSize bounds how much of a classifier reply is read.
const maxResponseSize = 1 << 20

// Verdict is a classifier answer. Pattern is patterns.None when the service had no label.
type Verdict struct {
	Pattern    patterns.Kind
	Confidence float64
}

// Classifier maps a program's features to a pattern label.
type Classifier interface {
	Classify(ctx context.Context, features Features, code string) (Verdict, error)
}

// ErrUnavailable is returned when no classifier is configured.
var ErrUnavailable = errors.New(errors.ClassifierUnavailable, "no statistical classifier configured", nil)

// Disabled is the classifier used when no endpoint is configured.
type Disabled struct{}

// Classify always fails with ErrUnavailable.
func (Disabled) Classify(context.Context, Features, string) (Verdict, error) {
	return Verdict{}, ErrUnavailable
}

// New returns an HTTP classifier for cfg, or Disabled when no endpoint is set.
func New(cfg config.ClassifierConfig, logger *slog.Logger) Classifier {
	if cfg.Endpoint == "" {
		return Disabled{}
	}
	return NewHTTPClassifier(cfg.Endpoint, time.Duration(cfg.TimeoutMs)*time.Millisecond, logger)
}

// HTTPClassifier posts features to a model service.
type HTTPClassifier struct {
	endpoint   string
	client     *http.Client
	logger     *slog.Logger
	maxRetries int
	baseDelay  time.Duration
}

// NewHTTPClassifier creates a client for the model service at endpoint.
func NewHTTPClassifier(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClassifier{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		logger:     slogutil.ForComponent(logger, "classifier"),
		maxRetries: 1,
		baseDelay:  100 * time.Millisecond,
	}
}

type classifyRequest struct {
	Features Features `json:"features"`
	Code     string   `json:"code"`
}

type classifyResponse struct {
	Pattern    *string `json:"pattern"`
	Confidence float64 `json:"confidence"`
}

// Classify sends one request. Server errors are retried once; anything else fails fast.
func (c *HTTPClassifier) Classify(ctx context.Context, features Features, code string) (Verdict, error) {
	body, err := json.Marshal(classifyRequest{Features: features, Code: code})
	if err != nil {
		return Verdict{}, errors.New(errors.ClassifierUnavailable, "failed to marshal features", err)
	}

	data, err := c.post(ctx, body)
	if err != nil {
		return Verdict{}, errors.New(errors.ClassifierUnavailable, "classifier request failed", err)
	}

	var resp classifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Verdict{}, errors.New(errors.ClassifierUnavailable, "invalid classifier response", err)
	}
	if resp.Pattern == nil || *resp.Pattern == "" {
		return Verdict{}, nil
	}

	kind, ok := patterns.ParseKind(*resp.Pattern)
	if !ok {
		c.logger.Warn("Unknown pattern predicted",
			"pattern", *resp.Pattern)
		return Verdict{}, nil
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return Verdict{}, errors.Newf(errors.ClassifierUnavailable, "confidence %v outside [0, 1]", resp.Confidence)
	}
	return Verdict{Pattern: kind, Confidence: resp.Confidence}, nil
}

func (c *HTTPClassifier) post(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.baseDelay * time.Duration(1<<uint(attempt-1))):
			}
			c.logger.Debug("Retrying classifier request",
				"attempt", attempt+1,
				"endpoint", c.endpoint)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "algoscope-classifier-client/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("client error: %d: %s", resp.StatusCode, bytes.TrimSpace(data))
		}
		return data, nil
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}
