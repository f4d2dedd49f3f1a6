package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOCRSpaceAnalyzer(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantErr  error
		errText  string
	}{
		{
			name:     "pages joined",
			status:   200,
			body:     `{"ParsedResults":[{"ParsedText":"page one\r\n"},{"ParsedText":"page two"}],"OCRExitCode":1,"IsErroredOnProcessing":false,"ErrorMessage":null}`,
			wantText: "page one\npage two",
		},
		{
			name:    "processing error as list",
			status:  200,
			body:    `{"OCRExitCode":3,"IsErroredOnProcessing":true,"ErrorMessage":["Unable to recognize the file type","E216"]}`,
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "processing error as string",
			status:  200,
			body:    `{"OCRExitCode":4,"IsErroredOnProcessing":true,"ErrorMessage":"Timed out waiting for results"}`,
			errText: "Timed out waiting for results",
		},
		{
			name:    "rate limited",
			status:  403,
			body:    `You may only perform this action upto maximum 180 number of times within 3600 seconds`,
			wantErr: ErrQuotaExceeded,
		},
		{
			name:    "plain text failure",
			status:  500,
			body:    `Internal error`,
			errText: "Internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				form = map[string]string{}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				for k, v := range r.MultipartForm.Value {
					form[k] = v[0]
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := NewOCRSpaceAnalyzer("K0123456789", srv.URL, "", srv.Client(), zap.NewNop())
			res, err := a.Analyze(context.Background(), "https://blob.test/a.pdf")

			assert.Equal(t, "https://blob.test/a.pdf", form["url"])
			assert.Equal(t, "K0123456789", form["apikey"])
			assert.Equal(t, "PDF", form["filetype"])
			assert.Equal(t, "eng", form["language"])

			if tt.wantText != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, res.Text)
				assert.Equal(t, 2, res.Pages)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestOCRSpaceAnalyzer_MissingKey(t *testing.T) {
	a := NewOCRSpaceAnalyzer(" ", "http://unused.test", "", nil, zap.NewNop())
	_, err := a.Analyze(context.Background(), "https://blob.test/a.pdf")
	assert.Error(t, err)
}

func TestDocIntelAnalyzer_PollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/documentintelligence/documentModels/prebuilt-read:analyze", r.URL.Path)
			assert.Equal(t, "2024-11-30", r.URL.Query().Get("api-version"))
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https://blob.test/a.pdf", body["urlSource"])
			w.Header().Set("Operation-Location", srvURL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			if polls.Add(1) < 3 {
				_, _ = w.Write([]byte(`{"status":"running"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":{"content":"hello world","pages":[{},{}]}}`))
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	a := NewDocIntelAnalyzer(srv.URL+"/", "secret", "prebuilt-read", time.Millisecond, srv.Client(), zap.NewNop())
	res, err := a.Analyze(context.Background(), "https://blob.test/a.pdf")

	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "prebuilt-read", res.Model)
	assert.Equal(t, int32(3), polls.Load())
}

func TestDocIntelAnalyzer_Errors(t *testing.T) {
	tests := []struct {
		name       string
		submitCode int
		submitBody string
		pollBody   string
		wantErr    error
		errText    string
	}{
		{
			name:       "unsupported content on submit",
			submitCode: 400,
			submitBody: `{"error":{"code":"InvalidRequest","message":"Invalid request.","innererror":{"code":"InvalidContent","message":"The file is corrupted or format is unsupported."}}}`,
			wantErr:    ErrUnsupportedFormat,
		},
		{
			name:       "throttled",
			submitCode: 429,
			submitBody: `{"error":{"code":"429","message":"Rate limit is exceeded."}}`,
			wantErr:    ErrQuotaExceeded,
		},
		{
			name:       "operation failed",
			submitCode: 202,
			pollBody:   `{"status":"failed","error":{"code":"InternalServerError","message":"An unexpected error occurred."}}`,
			errText:    "An unexpected error occurred.",
		},
		{
			name:       "operation failed on content",
			submitCode: 202,
			pollBody:   `{"status":"failed","error":{"code":"InvalidRequest","innererror":{"code":"UnsupportedContent","message":"Content is not supported"}}}`,
			wantErr:    ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var srvURL string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					if tt.submitCode == http.StatusAccepted {
						w.Header().Set("Operation-Location", srvURL+"/operations/1")
					}
					w.WriteHeader(tt.submitCode)
					_, _ = w.Write([]byte(tt.submitBody))
					return
				}
				_, _ = w.Write([]byte(tt.pollBody))
			}))
			defer srv.Close()
			srvURL = srv.URL

			a := NewDocIntelAnalyzer(srv.URL, "secret", "", time.Millisecond, srv.Client(), zap.NewNop())
			_, err := a.Analyze(context.Background(), "https://blob.test/a.pdf")

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestDocIntelAnalyzer_HonorsContextWhilePolling(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srvURL+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer srv.Close()
	srvURL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	a := NewDocIntelAnalyzer(srv.URL, "secret", "", 5*time.Millisecond, srv.Client(), zap.NewNop())
	_, err := a.Analyze(ctx, "https://blob.test/a.pdf")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
