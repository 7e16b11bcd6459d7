package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id,omitempty"`
	Title     string `json:"title"`
	Ctime     int64  `json:"ctime"`
	Mtime     int64  `json:"mtime"`
}

// Source is a cited document in an answer.
type Source struct {
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}

type Message struct {
	ID       string   `json:"id"`
	ChatID   string   `json:"chat_id"`
	Role     string   `json:"role"`
	Content  string   `json:"content"`
	Sources  []Source `json:"sources,omitempty"`
	Degraded bool     `json:"degraded,omitempty"`
	Ctime    int64    `json:"ctime"`
}
