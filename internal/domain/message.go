package domain

import "time"

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentPDF   AttachmentType = "pdf"
	AttachmentLink  AttachmentType = "link"
)

type Attachment struct {
	Type AttachmentType `json:"type" bson:"type"`
	URL  string         `json:"url" bson:"url"`
	Name string         `json:"name" bson:"name"`
}

// ChatMessage es un turno del historial de chat (usuario o asistente).
type ChatMessage struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Content    string      `json:"content"`
	IsUser     bool        `json:"is_user"`
	Attachment *Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
