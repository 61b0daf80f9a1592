package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetGradeDistribution returns a histogram of grades
// @Summary Grade distribution
// @Tags analytics
// @Produce json
// @Param bins query int false "Number of bins (default 10)"
// @Success 200 {object} AnalysisResponse{data=analytics.GradeDistributionReport}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /analytics/grade-distribution [get]
func (h *AnalyticsHandler) GetGradeDistribution(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	bins, ok := ParseIntQuery(c, "bins")
	if !ok {
		return
	}

	report, err := h.analyticsService.GetGradeDistribution(c.Request.Context(), sess, bins)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(report.Status, report))
}

// GetDifficultyDiscrimination returns the item analysis of every question
// @Summary Difficulty and discrimination
// @Tags analytics
// @Produce json
// @Success 200 {object} AnalysisResponse{data=analytics.ItemAnalysisReport}
// @Failure 422 {object} ErrorResponse
// @Router /analytics/difficulty-discrimination [get]
func (h *AnalyticsHandler) GetDifficultyDiscrimination(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.GetDifficultyDiscrimination(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(analytics.StatusOK, report))
}

// GetTopErrorTypes returns the most frequent error types of a question
// @Summary Top error types
// @Tags analytics
// @Produce json
// @Param question query string true "Question label"
// @Param top_n query int false "Number of error types (default 10)"
// @Success 200 {object} AnalysisResponse{data=analytics.ErrorTypeReport}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /analytics/error-types [get]
func (h *AnalyticsHandler) GetTopErrorTypes(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	topN, ok := ParseIntQuery(c, "top_n")
	if !ok {
		return
	}

	report, err := h.analyticsService.GetTopErrorTypes(c.Request.Context(), sess, c.Query("question"), topN)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(report.Status, report))
}

// GetErrorCategories returns the NEA error category breakdown of a question
// @Summary Error categories
// @Tags analytics
// @Produce json
// @Param question query string true "Question label"
// @Success 200 {object} AnalysisResponse{data=analytics.CategoryReport}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /analytics/error-categories [get]
func (h *AnalyticsHandler) GetErrorCategories(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	report, err := h.analyticsService.GetErrorCategoryBreakdown(c.Request.Context(), sess, c.Query("question"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalysisResponse(report.Status, report))
}

// ExportWorkbook downloads the analyses as an Excel workbook
// @Summary Export analyses
// @Tags analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param question query string false "Question label for the error sheets"
// @Param top_n query int false "Number of error types (default 10)"
// @Success 200 {file} file
// @Failure 422 {object} ErrorResponse
// @Router /analytics/export [get]
func (h *AnalyticsHandler) ExportWorkbook(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	topN, ok := ParseIntQuery(c, "top_n")
	if !ok {
		return
	}

	question := c.Query("question")
	if strings.TrimSpace(question) == "" {
		question = ""
	}
	data, err := h.analyticsService.ExportWorkbook(c.Request.Context(), sess, question, topN)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="feedback_analytics.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
