package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"papertrust/internal/config"
	"papertrust/internal/domain"
)

const (
	apiURL       = "https://api.mistral.ai/v1/ocr"
	defaultModel = "mistral-ocr-latest"
)

// Client implements port.OCRClient using the Mistral OCR API.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a Mistral OCR client. An empty API key returns domain.ErrMissingCredential.
func NewClient(cfg *config.OCRConfig) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newClient(cfg, endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.OCRConfig, endpoint string) (*Client, error) {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.OCRConfig, endpoint string) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ErrMissingCredential
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document documentRef `json:"document"`
}

type documentRef struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// pagesEnvelope reads only the page list; the payload itself stays opaque.
type pagesEnvelope struct {
	Pages []json.RawMessage `json:"pages"`
}

// Recognize submits documentURL for OCR. Exactly one attempt is made.
func (c *Client) Recognize(ctx context.Context, documentURL string) (*domain.OCRResult, error) {
	bodyBytes, err := json.Marshal(ocrRequest{
		Model: c.model,
		Document: documentRef{
			Type:        "document_url",
			DocumentURL: documentURL,
		},
	})
	if err != nil {
		return nil, &domain.OCRError{DocumentURL: documentURL, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &domain.OCRError{DocumentURL: documentURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.OCRError{DocumentURL: documentURL, Err: fmt.Errorf("calling mistral API: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.OCRError{StatusCode: resp.StatusCode, DocumentURL: documentURL, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.OCRError{
			StatusCode:  resp.StatusCode,
			Body:        string(respBody),
			DocumentURL: documentURL,
			Err:         fmt.Errorf("mistral API error (status %d)", resp.StatusCode),
		}
	}

	if !json.Valid(respBody) {
		return nil, &domain.OCRError{
			DocumentURL: documentURL,
			Body:        truncate(string(respBody), 500),
			Err:         fmt.Errorf("response is not valid JSON"),
		}
	}

	var env pagesEnvelope
	_ = json.Unmarshal(respBody, &env)

	return &domain.OCRResult{
		Payload:     json.RawMessage(respBody),
		DocumentURL: documentURL,
		Model:       c.model,
		PageCount:   len(env.Pages),
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
