package model

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	Organization string `json:"organization"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
