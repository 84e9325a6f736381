package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PrintPayload is sent to the sticker-printer sidecar that drives the shop
// floor label printers. The sidecar renders and spools the FG sticker.
type PrintPayload struct {
	ConfirmationID string `json:"confirmation_id"`
	Barcode        string `json:"barcode"` // 4-part form
	LotNo          string `json:"lot_no"`
	MachineName    string `json:"machine_name"`
	RollNo         int    `json:"roll_no"`
	FGRollNo       string `json:"fg_roll_no"`
	NetWeight      string `json:"net_weight"`
	GrossWeight    string `json:"gross_weight"`
}

// PrintResponse is returned by the sidecar after spooling.
type PrintResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PrinterClient is an HTTP client that delegates label printing to the
// printer sidecar. Printing is best-effort: callers treat failures as
// warnings, never as a reason to roll back a confirmation.
type PrinterClient struct {
	sidecarURL string
	httpClient *http.Client
}

func NewPrinterClient(sidecarURL string) *PrinterClient {
	return &PrinterClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Print sends a POST to the sidecar and returns its spool result.
func (c *PrinterClient) Print(ctx context.Context, payload PrintPayload) (*PrintResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("printer: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+"/print", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("printer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("printer: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("printer: sidecar returned %d", resp.StatusCode)
	}

	var result PrintResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("printer: decode response: %w", err)
	}
	return &result, nil
}
