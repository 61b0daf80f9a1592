package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened
type EventType string

const (
	EventDatasetUploaded   EventType = "dataset.uploaded"
	EventAnalysisCompleted EventType = "analysis.completed"
	EventChatAnswered      EventType = "chat.answered"
	EventContactSubmitted  EventType = "contact.submitted"
)

const (
	eventSource  = "feedback-analytics"
	eventVersion = "1.0"
)

// Event is the envelope published for every domain event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type DatasetUploadedEvent struct {
	SessionID      string   `json:"session_id"`
	DatasetID      string   `json:"dataset_id"`
	Name           string   `json:"name"`
	Rows           int      `json:"rows"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns,omitempty"`
}

type AnalysisCompletedEvent struct {
	SessionID  string            `json:"session_id"`
	DatasetID  string            `json:"dataset_id"`
	Analysis   string            `json:"analysis"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Status     string            `json:"status"`
	Cached     bool              `json:"cached"`
	DurationMs int64             `json:"duration_ms"`
}

type ChatAnsweredEvent struct {
	SessionID    string `json:"session_id"`
	DatasetID    string `json:"dataset_id"`
	Model        string `json:"model"`
	HistoryTurns int    `json:"history_turns"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

type ContactSubmittedEvent struct {
	MessageID   uint      `json:"message_id"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewDatasetUploadedEvent(data DatasetUploadedEvent) *Event {
	return newEvent(EventDatasetUploaded, data)
}

func NewAnalysisCompletedEvent(data AnalysisCompletedEvent) *Event {
	return newEvent(EventAnalysisCompleted, data)
}

func NewChatAnsweredEvent(data ChatAnsweredEvent) *Event {
	return newEvent(EventChatAnswered, data)
}

func NewContactSubmittedEvent(data ContactSubmittedEvent) *Event {
	return newEvent(EventContactSubmitted, data)
}
