package model

const (
	ProjectTypePortfolioCompany = "portfolio_company"
	ProjectTypeDeal             = "deal"
	ProjectTypeResearch         = "research"
	ProjectTypeUploads          = "uploads"
)

// ChatUploadsProjectName is the per-user project that receives files attached in chat.
const ChatUploadsProjectName = "Chat Uploads"

type Project struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

type ProjectIntelligence struct {
	ProjectID      string `json:"project_id"`
	DocumentCount  int    `json:"document_count"`
	CompletedCount int    `json:"completed_count"`
	FailedCount    int    `json:"failed_count"`
	ChunkCount     int    `json:"chunk_count"`
	TotalChars     int    `json:"total_chars"`
	LastIndexed    int64  `json:"last_indexed"`
}
