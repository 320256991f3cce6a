// Package ocr calls an external webhook that extracts amount, date, and
// merchant from an uploaded receipt image.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlynxNeko/sangu/internal/core"
)

// Result carries the fields the webhook managed to extract. Any of them may
// be empty; callers treat the whole result as a suggestion.
type Result struct {
	Amount   core.Money
	Date     string
	Merchant string
}

type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient returns a client for the given webhook URL. An empty URL
// disables scanning; Scan then reports not-configured without touching the
// network.
func NewClient(webhookURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c.webhookURL != ""
}

type scanRequest struct {
	UserID  string `json:"user_id"`
	FileURL string `json:"file_url"`
}

type scanResponse struct {
	Amount   json.Number `json:"amount"`
	Date     string      `json:"date"`
	Merchant string      `json:"merchant"`
}

// Scan sends the receipt URL to the webhook and returns whatever fields it
// could extract. A nil Result with nil error means scanning is disabled or
// the webhook returned nothing usable; the receipt upload itself is never
// failed because of OCR.
func (c *Client) Scan(ctx context.Context, userID, fileURL string) (*Result, error) {
	if !c.Enabled() {
		return nil, nil
	}

	body, err := json.Marshal(scanRequest{UserID: userID, FileURL: fileURL})
	if err != nil {
		return nil, fmt.Errorf("marshal scan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "OCR webhook unreachable", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "OCR webhook returned non-200", "status", resp.StatusCode)
		return nil, nil
	}

	var parsed scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		slog.WarnContext(ctx, "OCR webhook returned invalid JSON", "error", err)
		return nil, nil
	}

	result := &Result{
		Date:     parsed.Date,
		Merchant: parsed.Merchant,
	}
	if parsed.Amount != "" {
		cents, err := core.ParseDecimalToCents(parsed.Amount.String())
		if err != nil {
			slog.WarnContext(ctx, "OCR webhook returned unparseable amount",
				"amount", parsed.Amount.String(), "error", err)
		} else {
			result.Amount = core.Money{Cents: cents}
		}
	}

	slog.InfoContext(ctx, "Receipt scanned",
		"merchant", result.Merchant,
		"amount_cents", result.Amount.Cents)
	return result, nil
}
