package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultOCRSpaceEndpoint = "https://api.ocr.space/parse/image"

// OCRSpaceAnalyzer extracts text with the OCR.space API, which fetches the
// document itself from the locator.
type OCRSpaceAnalyzer struct {
	apiKey   string
	endpoint string
	language string
	client   *http.Client
	logger   *zap.Logger
}

func NewOCRSpaceAnalyzer(apiKey, endpoint, language string, client *http.Client, logger *zap.Logger) *OCRSpaceAnalyzer {
	if endpoint == "" {
		endpoint = defaultOCRSpaceEndpoint
	}
	if language == "" {
		language = "eng"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OCRSpaceAnalyzer{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: endpoint,
		language: language,
		client:   client,
		logger:   logger,
	}
}

// ocrMessages accepts both the string and the array form OCR.space uses for ErrorMessage.
type ocrMessages []string

func (m *ocrMessages) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*m = list
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	if one != "" {
		*m = ocrMessages{one}
	}
	return nil
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText   string      `json:"ParsedText"`
		ErrorMessage ocrMessages `json:"ErrorMessage"`
	} `json:"ParsedResults"`
	OCRExitCode           int         `json:"OCRExitCode"`
	IsErroredOnProcessing bool        `json:"IsErroredOnProcessing"`
	ErrorMessage          ocrMessages `json:"ErrorMessage"`
}

func (a *OCRSpaceAnalyzer) Analyze(ctx context.Context, locator string) (*AnalysisResult, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("OCR.space API key is not set")
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fields := [][2]string{
		{"apikey", a.apiKey},
		{"language", a.language},
		{"isOverlayRequired", "false"},
		{"filetype", "PDF"},
		{"url", locator},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish OCR request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, &b)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: OCR.space returned %s: %s", ErrQuotaExceeded, resp.Status, strings.TrimSpace(string(bodyBytes)))
	}

	var result ocrSpaceResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		// OCR.space answers some failures with plain text.
		return nil, fmt.Errorf("OCR API error (%s): %s", resp.Status, strings.TrimSpace(string(bodyBytes)))
	}

	if result.IsErroredOnProcessing || len(result.ParsedResults) == 0 {
		msg := strings.Join(result.ErrorMessage, "; ")
		if msg == "" {
			msg = "no OCR results found in response"
		}
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "file type") || strings.Contains(lower, "not supported") || strings.Contains(lower, "invalid pdf") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, msg)
		}
		return nil, fmt.Errorf("OCR.space error: %s", msg)
	}

	pages := make([]string, 0, len(result.ParsedResults))
	for _, r := range result.ParsedResults {
		pages = append(pages, strings.TrimRight(r.ParsedText, "\r\n"))
	}
	text := strings.Join(pages, "\n")

	a.logger.Debug("OCR text extracted",
		zap.Int("pages", len(pages)),
		zap.Int("characters", len(text)),
	)
	return &AnalysisResult{Text: text, Pages: len(pages), Model: "ocr.space"}, nil
}
