package models

import "time"

// FileRecord is the server-side metadata for a stored file. The client holds
// a read-only snapshot; a full list re-fetch replaces it wholesale.
type FileRecord struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Owner       string    `json:"owner,omitempty"`
}
