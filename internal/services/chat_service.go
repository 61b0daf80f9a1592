package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/feedback-analytics/internal/dataset"
	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/llm"
	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/validator"
)

// DefaultContextRows is how many dataset rows are sent to the model as context
const DefaultContextRows = 100

// ChatOptions configures the assistant
type ChatOptions struct {
	// APIKey is used when the caller does not bring their own key
	APIKey      string
	Temperature float64
	MaxTokens   int
	ContextRows int
}

// ChatAnswer is the assistant's reply to one question
type ChatAnswer struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Model    string    `json:"model"`
	Usage    llm.Usage `json:"usage"`
	Turns    int       `json:"turns"`
}

type ChatService interface {
	Ask(ctx context.Context, sess *models.Session, question, apiKey string) (*ChatAnswer, error)
	History(ctx context.Context, sess *models.Session) []models.ChatTurn
	ClearHistory(ctx context.Context, sess *models.Session) error

	// Transcript renders the history as plain text for download
	Transcript(ctx context.Context, sess *models.Session) string
}

type chatService struct {
	datasets  DatasetResolver
	sessions  *session.Manager
	factory   llm.Factory
	opts      ChatOptions
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	validator *validator.Validator
	logger    *ServiceLogger
	log       *slog.Logger
}

func NewChatService(datasets DatasetResolver, sessions *session.Manager, factory llm.Factory, opts ChatOptions, publisher events.EventPublisher, m *metrics.Metrics, v *validator.Validator, logger *slog.Logger) ChatService {
	if opts.ContextRows <= 0 {
		opts.ContextRows = DefaultContextRows
	}
	return &chatService{
		datasets:  datasets,
		sessions:  sessions,
		factory:   factory,
		opts:      opts,
		publisher: publisher,
		metrics:   m,
		validator: v,
		logger:    NewServiceLogger(logger, "chat"),
		log:       logger,
	}
}

// Ask answers a question about the session's dataset. The question, the first rows of the
// dataset and the prior exchanges are sent in a single request; nothing is retried.
// The exchange is appended to the session history only when the model answers.
func (s *chatService) Ask(ctx context.Context, sess *models.Session, question, apiKey string) (answer *ChatAnswer, err error) {
	start := time.Now()
	defer func() {
		outcome := chatOutcome(err)
		var usage llm.Usage
		if answer != nil {
			usage = answer.Usage
		}
		s.metrics.ObserveChat(outcome, usage.InputTokens, usage.OutputTokens)
		s.logger.LogOperation(ctx, "ask", sess.ID, sess.ActiveDatasetID(), time.Since(start), err,
			slog.Int("history_turns", len(sess.ChatHistory)))
	}()

	if err := s.validator.Var("question", question, "required,notblank,max=2000"); err != nil {
		return nil, err
	}

	ds, err := s.datasets.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = s.opts.APIKey
	}
	if key == "" {
		return nil, ErrMissingCredential
	}

	provider, err := s.factory(key)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return nil, ErrMissingCredential
		}
		return nil, &UpstreamError{Kind: ErrChatUnavailable, Err: err}
	}

	datasetContext, err := dataset.ContextCSV(ds, s.opts.ContextRows)
	if err != nil {
		return nil, fmt.Errorf("failed to render dataset context: %w", err)
	}

	var (
		resp  *llm.Response
		model string
	)
	// The prompt is built from the latest stored history so concurrent questions
	// on one session see each other's answers.
	err = s.sessions.Update(ctx, sess, func(current *models.Session) error {
		history := make([]llm.Exchange, len(current.ChatHistory))
		for i, turn := range current.ChatHistory {
			history[i] = llm.Exchange{Question: turn.Question, Answer: turn.Answer}
		}

		var genErr error
		resp, genErr = provider.Generate(ctx, llm.Request{
			System: llm.TutorSystemPrompt,
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: llm.BuildQuestionPrompt(datasetContext, llm.FormatHistory(history), question)},
			},
			MaxTokens:   s.opts.MaxTokens,
			Temperature: s.opts.Temperature,
		})
		if genErr != nil {
			return upstreamChatError(genErr)
		}

		model = resp.Model
		if model == "" {
			model = provider.ModelID()
		}
		current.ChatHistory = append(current.ChatHistory, models.ChatTurn{
			Question: question,
			Answer:   resp.Content,
			Model:    model,
			AskedAt:  time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.log, s.publisher, events.NewChatAnsweredEvent(events.ChatAnsweredEvent{
		SessionID:    sess.ID,
		DatasetID:    ds.ID,
		Model:        model,
		HistoryTurns: len(sess.ChatHistory),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}))

	return &ChatAnswer{
		Question: question,
		Answer:   resp.Content,
		Model:    model,
		Usage:    resp.Usage,
		Turns:    len(sess.ChatHistory),
	}, nil
}

func (s *chatService) History(_ context.Context, sess *models.Session) []models.ChatTurn {
	if sess.ChatHistory == nil {
		return []models.ChatTurn{}
	}
	return sess.ChatHistory
}

func (s *chatService) ClearHistory(ctx context.Context, sess *models.Session) error {
	return s.sessions.Update(ctx, sess, func(current *models.Session) error {
		current.ChatHistory = []models.ChatTurn{}
		return nil
	})
}

func (s *chatService) Transcript(_ context.Context, sess *models.Session) string {
	parts := make([]string, len(sess.ChatHistory))
	for i, turn := range sess.ChatHistory {
		parts[i] = fmt.Sprintf("Q: %s\nA: %s", turn.Question, turn.Answer)
	}
	return strings.Join(parts, "\n\n")
}

func chatOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsValidation(err):
		return "invalid"
	case IsUnauthorized(err):
		return "unauthorized"
	case IsRateLimited(err):
		return "rate_limited"
	case IsUpstream(err):
		return "upstream_error"
	default:
		return "error"
	}
}
