package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// HFInferenceBackend talks to a Hugging Face style text2text endpoint
// (hosted Inference API or a self-hosted server with the same contract).
type HFInferenceBackend struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHFInferenceBackend(endpoint, token string, timeout time.Duration) *HFInferenceBackend {
	return &HFInferenceBackend{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *HFInferenceBackend) Name() string {
	return "hf:" + b.endpoint
}

// Load sends one warm-up request so a cold model is fetched before serving.
func (b *HFInferenceBackend) Load(ctx context.Context) error {
	if b.endpoint == "" {
		return errors.New("MODEL_ENDPOINT is not set")
	}
	text, err := b.Complete(ctx, "Hello", 8)
	if err != nil {
		return err
	}
	log.Printf("[model] warm-up reply: %q", text)
	return nil
}

func (b *HFInferenceBackend) Complete(ctx context.Context, text string, maxLength int) (string, error) {
	reqBody := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"max_length": maxLength,
			"do_sample":  false,
		},
		"options": map[string]any{
			"wait_for_model": true,
			"use_cache":      false,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}
	return parseGenerated(respBytes)
}

// parseGenerated accepts [{"generated_text": ...}] and {"generated_text": ...}.
func parseGenerated(body []byte) (string, error) {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}
	switch v := parsed.(type) {
	case []any:
		if len(v) == 0 {
			return "", errors.New("empty generation list")
		}
		if first, ok := v[0].(map[string]any); ok {
			return generatedText(first)
		}
	case map[string]any:
		return generatedText(v)
	}
	return "", fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body)))
}

func generatedText(obj map[string]any) (string, error) {
	if msg, ok := obj["error"].(string); ok && msg != "" {
		return "", fmt.Errorf("backend error: %s", msg)
	}
	if txt, ok := obj["generated_text"].(string); ok {
		return txt, nil
	}
	if txt, ok := obj["summary_text"].(string); ok {
		return txt, nil
	}
	return "", errors.New("response has no generated_text")
}
