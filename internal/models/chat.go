package models

import "time"

// ChatTurn is one question/answer exchange with the assistant
type ChatTurn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Model    string    `json:"model,omitempty"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session holds the per-user state: the active dataset and the chat history.
// It is passed explicitly to every service call.
type Session struct {
	ID          string     `json:"id"`
	DatasetID   string     `json:"dataset_id"`
	ChatHistory []ChatTurn `json:"chat_history"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ActiveDatasetID returns the session's dataset, falling back to the default dataset
func (s *Session) ActiveDatasetID() string {
	if s == nil || s.DatasetID == "" {
		return DefaultDatasetID
	}
	return s.DatasetID
}
