package domain

import "time"

type ReceiptStatus string

const (
	StatusUploaded   ReceiptStatus = "uploaded"
	StatusProcessing ReceiptStatus = "processing"
	StatusReady      ReceiptStatus = "ready"
	StatusFailed     ReceiptStatus = "failed"
)

// Receipt is the stored upload plus the extraction outcome once the worker
// has run the pipeline over it.
type Receipt struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Status      ReceiptStatus  `json:"status"`
	Extraction  *ExtractedData `json:"extraction,omitempty"`
	AIAvailable bool           `json:"ai_available"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RawImage is the uploaded payload handed to the extraction pipeline.
// Size is pre-validated by the HTTP layer; the pipeline does not re-check.
type RawImage struct {
	Data     []byte
	MimeType string
}
