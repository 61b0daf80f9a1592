package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

// APIKeyHeader lets callers bring their own OpenAI key
const APIKeyHeader = "X-OpenAI-Key"

type ChatHandler struct {
	BaseHandler
	chatService services.ChatService
}

type AskRequest struct {
	Question string `json:"question"`
}

func NewChatHandler(chatService services.ChatService, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(logger),
		chatService: chatService,
	}
}

// Ask sends a question about the dataset to the assistant
// @Summary Ask the assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param X-OpenAI-Key header string false "OpenAI API key"
// @Param request body AskRequest true "Question"
// @Success 200 {object} SuccessResponse{data=services.ChatAnswer}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Ask(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Chat question", "session_id", sess.ID, "history_turns", len(sess.ChatHistory))

	answer, err := h.chatService.Ask(c.Request.Context(), sess, req.Question, c.GetHeader(APIKeyHeader))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer generated", Data: answer})
}

// GetHistory returns the session's chat history
// @Summary Chat history
// @Tags chat
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.ChatTurn}
// @Router /chat/history [get]
func (h *ChatHandler) GetHistory(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Chat history",
		Data:    h.chatService.History(c.Request.Context(), sess),
	})
}

// DownloadHistory returns the chat history as a text file
// @Summary Download chat history
// @Tags chat
// @Produce plain
// @Success 200 {string} string
// @Router /chat/history/download [get]
func (h *ChatHandler) DownloadHistory(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="chat_history.txt"`)
	c.String(http.StatusOK, h.chatService.Transcript(c.Request.Context(), sess))
}

// ClearHistory empties the session's chat history
// @Summary Clear chat history
// @Tags chat
// @Success 204
// @Router /chat/history [delete]
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	if err := h.chatService.ClearHistory(c.Request.Context(), sess); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
