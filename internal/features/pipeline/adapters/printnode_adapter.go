package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"scan-station/internal/core/config"
	"scan-station/internal/core/httpclient"
	"scan-station/internal/core/logger"

	"go.uber.org/zap"
)

// PrintNodeAdapter implements the DocumentPrinter interface against the
// PrintNode printjobs API.
type PrintNodeAdapter struct {
	client *http.Client
	config config.PrintNodeConfig
}

// NewPrintNodeAdapter creates a new instance of PrintNodeAdapter.
func NewPrintNodeAdapter(cfg config.PrintNodeConfig) *PrintNodeAdapter {
	return &PrintNodeAdapter{
		client: httpclient.NewClient(20 * time.Second),
		config: cfg,
	}
}

// printJob is the PrintNode job submission body.
type printJob struct {
	PrinterID   int    `json:"printerId"`
	Title       string `json:"title"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
	Source      string `json:"source"`
}

// Print submits one base64 PDF under a job title.
func (a *PrintNodeAdapter) Print(ctx context.Context, base64PDF, title string) error {
	if a.config.APIKey == "" || a.config.PrinterID == 0 {
		return fmt.Errorf("print service not configured")
	}

	body, err := json.Marshal(printJob{
		PrinterID:   a.config.PrinterID,
		Title:       title,
		ContentType: "pdf_base64",
		Content:     base64PDF,
		Source:      "scan-station",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal print job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/printjobs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// PrintNode authenticates with the API key as basic-auth username.
	req.SetBasicAuth(a.config.APIKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("print service returned status: %d", resp.StatusCode)
	}

	var jobID json.Number
	if err := json.NewDecoder(resp.Body).Decode(&jobID); err == nil {
		logger.Get().Info("Print job submitted",
			zap.String("title", title),
			zap.String("job_id", jobID.String()),
		)
	}
	return nil
}
