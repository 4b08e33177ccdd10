package models

import "time"

// Источники метаданных книг.
const (
	SourceGoogle      = "google"
	SourceOpenLibrary = "openlibrary"
)

// Book локальная копия метаданных книги внешнего провайдера.
// Уникальна по паре (Source, ExternalID).
type Book struct {
	ID              int        `json:"id"`
	Source          string     `json:"source"`
	ExternalID      string     `json:"external_id"`
	Title           string     `json:"title"`
	Authors         string     `json:"authors"`
	Description     string     `json:"description"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	PreviewLink     string     `json:"preview_link"`
	PublicationDate *time.Time `json:"publication_date"`
	ISBN            string     `json:"isbn"`
	PageCount       *int       `json:"page_count"`
	Categories      string     `json:"categories"`
	Language        string     `json:"language"`
	CoverID         string     `json:"cover_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BookState состояние книги для конкретного пользователя.
type BookState struct {
	IsFavorited     bool `json:"is_favorited"`
	ReadingProgress int  `json:"reading_progress"`
}

// BookView книга вместе с состоянием для текущего пользователя.
type BookView struct {
	Book
	BookState
}

// Favorite книга в избранном пользователя.
type Favorite struct {
	ID        int       `json:"id"`
	Book      BookView  `json:"book"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadingHistory прогресс чтения книги пользователем, 0..100.
type ReadingHistory struct {
	ID       int       `json:"id"`
	Book     BookView  `json:"book"`
	Progress int       `json:"progress"`
	LastRead time.Time `json:"last_read"`
}

// ProgressRequest запрос обновления прогресса чтения.
type ProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

// DownloadLinks ссылки на скачивание книги или ссылка на предпросмотр,
// если прямое скачивание недоступно.
type DownloadLinks struct {
	Links       map[string]string `json:"links,omitempty"`
	Message     string            `json:"message,omitempty"`
	PreviewLink string            `json:"preview_link,omitempty"`
}
