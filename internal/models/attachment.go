package models

import "time"

// Attachment is a file owned by exactly one task. Attachments are created by
// upload and destroyed by delete; they are never modified in place.
type Attachment struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"-"`
	Filename    string    `json:"filename"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	ContentType *string   `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// AttachmentDownload is the response of the download endpoint. For object
// storage backends the server answers with a redirect instead; the client
// then fills URL from the Location header.
type AttachmentDownload struct {
	URL      string `json:"download_url"`
	Filename string `json:"filename"`
}
