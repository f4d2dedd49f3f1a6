package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultDocIntelModel      = "prebuilt-layout"
	defaultDocIntelAPIVersion = "2024-11-30"
)

// DocIntelAnalyzer submits documents to Azure AI Document Intelligence and
// polls the long-running operation until it completes.
type DocIntelAnalyzer struct {
	endpoint     string
	apiKey       string
	model        string
	apiVersion   string
	pollInterval time.Duration
	client       *http.Client
	logger       *zap.Logger
}

func NewDocIntelAnalyzer(endpoint, apiKey, model string, pollInterval time.Duration, client *http.Client, logger *zap.Logger) *DocIntelAnalyzer {
	if model == "" {
		model = defaultDocIntelModel
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DocIntelAnalyzer{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		model:        model,
		apiVersion:   defaultDocIntelAPIVersion,
		pollInterval: pollInterval,
		client:       client,
		logger:       logger,
	}
}

type docIntelError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	InnerError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"innererror"`
}

type docIntelOperation struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Content string            `json:"content"`
		Pages   []json.RawMessage `json:"pages"`
	} `json:"analyzeResult"`
	Error *docIntelError `json:"error"`
}

func (a *DocIntelAnalyzer) Analyze(ctx context.Context, locator string) (*AnalysisResult, error) {
	body, err := json.Marshal(map[string]string{"urlSource": locator})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	target := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s", a.endpoint, a.model, a.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze request failed: %w", err)
	}
	opURL := resp.Header.Get("Operation-Location")
	wait := a.retryAfter(resp)
	if resp.StatusCode != http.StatusAccepted {
		defer resp.Body.Close()
		return nil, a.responseError(resp)
	}
	resp.Body.Close()
	if opURL == "" {
		return nil, fmt.Errorf("analyze response has no Operation-Location header")
	}

	a.logger.Debug("analysis submitted", zap.String("operation", opURL))

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for analysis: %w", ctx.Err())
		case <-time.After(wait):
		}

		op, next, err := a.poll(ctx, opURL)
		if err != nil {
			return nil, err
		}
		wait = next

		switch strings.ToLower(op.Status) {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return &AnalysisResult{Model: a.model}, nil
			}
			return &AnalysisResult{
				Text:  op.AnalyzeResult.Content,
				Pages: len(op.AnalyzeResult.Pages),
				Model: a.model,
			}, nil
		case "failed", "canceled":
			return nil, classifyDocIntelError(0, op.Error)
		}
	}
}

func (a *DocIntelAnalyzer) poll(ctx context.Context, opURL string) (*docIntelOperation, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, a.responseError(resp)
	}

	var op docIntelOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, 0, fmt.Errorf("failed to decode analysis status: %w", err)
	}
	return &op, a.retryAfter(resp), nil
}

func (a *DocIntelAnalyzer) retryAfter(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return a.pollInterval
}

func (a *DocIntelAnalyzer) responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var envelope struct {
		Error *docIntelError `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) != nil || envelope.Error == nil {
		envelope.Error = &docIntelError{Message: strings.TrimSpace(string(raw))}
	}
	return classifyDocIntelError(resp.StatusCode, envelope.Error)
}

func classifyDocIntelError(status int, e *docIntelError) error {
	if e == nil {
		e = &docIntelError{Message: "analysis failed without details"}
	}
	codes := []string{e.Code}
	msg := e.Message
	if e.InnerError != nil {
		codes = append(codes, e.InnerError.Code)
		if e.InnerError.Message != "" {
			msg = e.InnerError.Message
		}
	}
	desc := strings.TrimSpace(fmt.Sprintf("%s %s", e.Code, msg))

	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, desc)
	}
	for _, c := range codes {
		switch c {
		case "InvalidContent", "UnsupportedContent", "InvalidContentLength":
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc)
		case "TooManyRequests", "QuotaExceeded", "OutOfQuota":
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, desc)
		}
	}
	if status != 0 {
		return fmt.Errorf("document intelligence returned status %d: %s", status, desc)
	}
	return fmt.Errorf("document intelligence analysis failed: %s", desc)
}
