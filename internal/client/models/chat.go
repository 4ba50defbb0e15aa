package models

import "time"

// UploadHandle is the server-side reference returned by chatbot/upload.
// It is forwarded unchanged in the next message request.
type UploadHandle struct {
	Message  string `json:"message,omitempty"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type,omitempty"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}

type ChatReply struct {
	Message  string `json:"message"`
	Response string `json:"response"`
	Language string `json:"language"`
}

// ChatRecord is one persisted exchange from chatbot/history.
type ChatRecord struct {
	ID        int64  `json:"id,omitempty"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	Language  string `json:"language"`
	CreatedAt string `json:"created_at"`
}

type ChatHistory struct {
	History []ChatRecord `json:"history"`
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is a single bubble of the conversation as the client shows it.
type ChatMessage struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
	MediaPath string
	Pending   bool
}

type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}
