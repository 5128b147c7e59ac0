package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HealthReport is the transcription service's self-reported readiness.
type HealthReport struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// Healthy reports whether the service declared itself ready.
func (h HealthReport) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy")
}

// Health probes the service health endpoint adjacent to the transcribe URL.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	url := strings.TrimRight(c.cfg.URL, "/") + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthReport{}, fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("reach transcription service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return HealthReport{}, fmt.Errorf("read health response: %w", err)
	}

	var report HealthReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return HealthReport{}, fmt.Errorf("decode health response (status %d): %w", resp.StatusCode, err)
	}
	return report, nil
}
