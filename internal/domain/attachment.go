package domain

import (
	"time"

	"github.com/google/uuid"
)

const MaxAttachmentSize = 10 << 20

type Attachment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	TaskID      *uuid.UUID `json:"task_id,omitempty" db:"task_id"`
	ComplaintID *uuid.UUID `json:"complaint_id,omitempty" db:"complaint_id"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty" db:"uploaded_by"`
	FileName    string     `json:"file_name" db:"file_name"`
	FileSize    int64      `json:"file_size" db:"file_size"`
	MimeType    string     `json:"mime_type" db:"mime_type"`
	StorageKey  string     `json:"-" db:"storage_key"`
	URL         string     `json:"url,omitempty" db:"-"`
	UploadedAt  time.Time  `json:"uploaded_at" db:"uploaded_at"`
}

// Upload is a file received from a client, already opened for reading.
type Upload struct {
	FileName    string
	Size        int64
	ContentType string
}
