package model

const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

type DocumentMeta struct {
	ChunksCreated int    `json:"chunks_created,omitempty"`
	TextLength    int    `json:"text_length,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Document struct {
	ID         string       `json:"id"`
	ProjectID  string       `json:"project_id"`
	UserID     string       `json:"user_id"`
	Filename   string       `json:"filename"`
	FileType   string       `json:"file_type"`
	FileSize   int64        `json:"file_size"`
	StorageKey string       `json:"-"`
	Status     string       `json:"status"`
	Content    string       `json:"-"`
	Metadata   DocumentMeta `json:"metadata"`
	Ctime      int64        `json:"ctime"`
	Mtime      int64        `json:"mtime"`
}
