package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kautilya-labs/georisk/internal/retry"
	"github.com/kautilya-labs/georisk/internal/signal"
)

const (
	sentimentTimeout     = 10 * time.Second
	sentimentMaxAttempts = 3
	sentimentRetryDelay  = 200 * time.Millisecond
)

// SentimentClient calls an external sentiment scoring service over HTTP.
// It implements signal.SentimentAnalyzer. The service contract is a single
// POST endpoint taking {"text": ...} and returning {"score": s in [-1, 1],
// "confidence": c in [0, 1]}.
//
// Transient failures (network errors, 5xx) are retried with backoff; 4xx
// responses and malformed payloads are not.
type SentimentClient struct {
	url    string
	client *http.Client
}

// NewSentimentClient creates a client for the sentiment service at url.
func NewSentimentClient(url string) *SentimentClient {
	return &SentimentClient{
		url: url,
		client: &http.Client{
			Timeout: sentimentTimeout,
		},
	}
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Analyze scores one text. Errors propagate so the caller can fall back to
// keyword analysis.
func (c *SentimentClient) Analyze(ctx context.Context, text string) (signal.Sentiment, error) {
	body, err := json.Marshal(sentimentRequest{Text: text})
	if err != nil {
		return signal.Sentiment{}, fmt.Errorf("encode sentiment request: %w", err)
	}

	var out sentimentResponse
	err = retry.Do(ctx, sentimentMaxAttempts, sentimentRetryDelay, func() error {
		return c.post(ctx, body, &out)
	})
	if err != nil {
		return signal.Sentiment{}, err
	}

	if out.Score < -1 || out.Score > 1 {
		return signal.Sentiment{}, fmt.Errorf("sentiment score %v out of range", out.Score)
	}

	return signal.Sentiment{Score: out.Score, Confidence: out.Confidence}, nil
}

func (c *SentimentClient) post(ctx context.Context, body []byte, out *sentimentResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build sentiment request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sentiment service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return fmt.Errorf("sentiment service returned %d", resp.StatusCode)
	default:
		return retry.Permanent(fmt.Errorf("sentiment service returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode sentiment response: %w", err))
	}
	return nil
}
