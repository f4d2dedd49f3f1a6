package models

// UploadRequest carries an uploaded file into the pipeline.
type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadOutcome is the result of accepting a file.
type UploadOutcome struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// AnalysisOutcome is the result of analyzing and indexing one document.
type AnalysisOutcome struct {
	FileName string          `json:"fileName"`
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Document *DocumentRecord `json:"document"`
}
