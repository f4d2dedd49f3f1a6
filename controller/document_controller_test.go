package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	model "github.com/Itish41/DocLens/models"
	service "github.com/Itish41/DocLens/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, req model.UploadRequest) (model.UploadOutcome, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.UploadOutcome), args.Error(1)
}

func (m *MockDocumentService) AnalyzeStored(ctx context.Context, fileName string) (model.AnalysisOutcome, error) {
	args := m.Called(ctx, fileName)
	return args.Get(0).(model.AnalysisOutcome), args.Error(1)
}

func (m *MockDocumentService) AnalyzeAll(ctx context.Context, concurrency int) ([]model.AnalysisOutcome, error) {
	args := m.Called(ctx, concurrency)
	outcomes, _ := args.Get(0).([]model.AnalysisOutcome)
	return outcomes, args.Error(1)
}

func (m *MockDocumentService) ListDocuments(ctx context.Context) ([]model.DocumentMetadata, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]model.DocumentMetadata)
	return docs, args.Error(1)
}

func (m *MockDocumentService) IngestionHistory(ctx context.Context, limit int) ([]model.IngestionRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]model.IngestionRecord)
	return records, args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newDocumentRouter(svc DocumentService, maxBytes int64) *gin.Engine {
	dc := NewDocumentController(svc, zap.NewNop(), maxBytes, 3)
	r := gin.New()
	r.POST("/api/documents/upload", dc.UploadDocument)
	r.GET("/api/documents", dc.GetAllDocuments)
	r.POST("/api/documents/analyze/:fileName", dc.AnalyzeDocument)
	r.POST("/api/documents/analyze-all", dc.AnalyzeAllDocuments)
	r.GET("/api/ingestions", dc.GetIngestions)
	return r
}

func multipartUpload(t *testing.T, field, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &b, w.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	svc := new(MockDocumentService)
	svc.On("Upload", mock.Anything, model.UploadRequest{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.7"),
	}).Return(model.UploadOutcome{
		FileName: "report-1.pdf",
		FileURL:  "https://blob.test/report-1.pdf",
		Success:  true,
		Message:  "file uploaded successfully",
	}, nil)

	body, ct := multipartUpload(t, "file", "report.pdf", "application/pdf", []byte("%PDF-1.7"))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newDocumentRouter(svc, 1<<20).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.UploadOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "report-1.pdf", got.FileName)
	assert.Equal(t, "https://blob.test/report-1.pdf", got.FileURL)
	svc.AssertExpectations(t)
}

func TestUploadDocumentRejected(t *testing.T) {
	t.Run("missing file field", func(t *testing.T) {
		svc := new(MockDocumentService)
		body, ct := multipartUpload(t, "other", "report.pdf", "application/pdf", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		newDocumentRouter(svc, 1<<20).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"fileName":"","fileUrl":"","success":false,"message":"no file or empty file"}`, w.Body.String())
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("validation error from service", func(t *testing.T) {
		svc := new(MockDocumentService)
		svc.On("Upload", mock.Anything, mock.Anything).
			Return(model.UploadOutcome{Message: "no file or empty file"}, fmt.Errorf("%w: empty", service.ErrValidation))
		body, ct := multipartUpload(t, "file", "empty.pdf", "application/pdf", nil)
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		newDocumentRouter(svc, 1<<20).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
		assert.Contains(t, w.Body.String(), "no file or empty file")
	})

	t.Run("too large", func(t *testing.T) {
		svc := new(MockDocumentService)
		body, ct := multipartUpload(t, "file", "big.pdf", "application/pdf", bytes.Repeat([]byte("a"), 4096))
		req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		newDocumentRouter(svc, 512).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})
}

func TestAnalyzeDocument(t *testing.T) {
	tests := []struct {
		name       string
		outcome    model.AnalysisOutcome
		err        error
		wantStatus int
	}{
		{
			name:       "indexed",
			outcome:    model.AnalysisOutcome{FileName: "a.pdf", Success: true, Message: "document analyzed successfully", Document: &model.DocumentRecord{ID: "a.pdf"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			outcome:    model.AnalysisOutcome{FileName: "a.pdf", Message: "document not found"},
			err:        service.ErrDocumentNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "quota",
			outcome:    model.AnalysisOutcome{FileName: "a.pdf", Message: "analysis failed"},
			err:        fmt.Errorf("analysis failed: %w", service.ErrQuotaExceeded),
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "analysis failed",
			outcome:    model.AnalysisOutcome{FileName: "a.pdf", Message: "analysis failed: timeout"},
			err:        fmt.Errorf("analysis failed: timeout"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "storage unavailable",
			outcome:    model.AnalysisOutcome{FileName: "a.pdf", Message: "failed to locate document: connection reset"},
			err:        fmt.Errorf("%w: connection reset", service.ErrStorageUnavailable),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDocumentService)
			svc.On("AnalyzeStored", mock.Anything, "a.pdf").Return(tt.outcome, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/documents/analyze/a.pdf", nil)
			w := httptest.NewRecorder()
			newDocumentRouter(svc, 0).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var got model.AnalysisOutcome
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.outcome.Message, got.Message)
			assert.Equal(t, tt.outcome.Success, got.Success)
			if !tt.outcome.Success {
				assert.Nil(t, got.Document)
			}
		})
	}
}

func TestAnalyzeAllDocuments(t *testing.T) {
	svc := new(MockDocumentService)
	svc.On("AnalyzeAll", mock.Anything, 3).Return([]model.AnalysisOutcome{
		{FileName: "a.pdf", Success: true},
		{FileName: "b.pdf", Success: false, Message: "analysis failed: boom"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/analyze-all", nil)
	w := httptest.NewRecorder()
	newDocumentRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
}

func TestGetAllDocuments(t *testing.T) {
	svc := new(MockDocumentService)
	svc.On("ListDocuments", mock.Anything).Return([]model.DocumentMetadata{{Name: "a.pdf", Size: 10}}, nil).Once()
	svc.On("ListDocuments", mock.Anything).Return(nil, fmt.Errorf("bucket unavailable")).Once()
	r := newDocumentRouter(svc, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "bucket unavailable")
}

func TestGetIngestions(t *testing.T) {
	svc := new(MockDocumentService)
	svc.On("IngestionHistory", mock.Anything, 5).Return([]model.IngestionRecord{{FileName: "a.pdf", Status: model.IngestionIndexed}}, nil)
	r := newDocumentRouter(svc, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ingestions?limit=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"indexed"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ingestions?limit=-2", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
