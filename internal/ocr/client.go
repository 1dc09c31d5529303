package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const extractPath = "/ocr/extract-top"

// Client forwards statement PDFs to the OCR service. It does not retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type extractResponse struct {
	Fields *Fields `json:"fields"`
}

func (c *Client) Extract(ctx context.Context, fileName string, content []byte) (*Fields, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+extractPath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Tag: TagFailed, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Tag: TagFailed, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Tag: TagFailed, Status: resp.StatusCode, Body: truncate(respBody)}
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &Error{Tag: TagInvalidJSON, Status: resp.StatusCode, Body: truncate(respBody)}
	}

	if parsed.Fields == nil {
		return &Fields{}, nil
	}

	return parsed.Fields, nil
}
