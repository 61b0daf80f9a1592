package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/middleware"
	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

type ContactHandler struct {
	BaseHandler
	contactService services.ContactService
}

func NewContactHandler(contactService services.ContactService, logger utils.Logger) *ContactHandler {
	return &ContactHandler{
		BaseHandler:    NewBaseHandler(logger),
		contactService: contactService,
	}
}

// SubmitContact stores a contact form message
// @Summary Submit contact message
// @Tags contact
// @Accept json
// @Produce json
// @Param request body services.ContactRequest true "Contact message"
// @Success 201 {object} SuccessResponse{data=models.ContactMessage}
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req services.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	sessionID := ""
	if sess, ok := middleware.CurrentSession(c); ok {
		sessionID = sess.ID
	}
	req.Metadata = map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	}
	if sessionID != "" {
		req.Metadata["session_id"] = sessionID
	}

	msg, err := h.contactService.Submit(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "Thank you for your message", Data: msg})
}
