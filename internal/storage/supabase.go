package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseStorage handles statement files in Supabase Storage
type SupabaseStorage struct {
	baseURL    string
	apiKey     string
	bucketName string
	httpClient *http.Client
}

// NewSupabaseStorage creates a new Supabase Storage client. baseURL is the
// project URL, e.g. https://<project>.supabase.co
func NewSupabaseStorage(baseURL, apiKey, bucketName string) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucketName: bucketName,
		httpClient: &http.Client{},
	}
}

// Put uploads a file, overwriting any object already stored under key
func (s *SupabaseStorage) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if s.baseURL == "" || s.apiKey == "" {
		return ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(s.bucketName), escapeKey(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	s.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignedURL asks Supabase for a signed download link valid for ttl
func (s *SupabaseStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return "", ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, url.PathEscape(s.bucketName), escapeKey(key))

	payload, err := json.Marshal(signRequest{ExpiresIn: int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sign failed with status %d: %s", resp.StatusCode, string(body))
	}

	var signed signResponse
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("failed to decode sign response: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign response did not include a url")
	}

	return s.baseURL + "/storage/v1" + signed.SignedURL, nil
}

func (s *SupabaseStorage) authorize(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("apikey", s.apiKey)
}

// escapeKey escapes each segment of an object key so characters from the
// uploaded file name cannot end the path early.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
