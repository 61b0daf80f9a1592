package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

type DatasetHandler struct {
	BaseHandler
	datasetService services.DatasetService
}

func NewDatasetHandler(datasetService services.DatasetService, logger utils.Logger) *DatasetHandler {
	return &DatasetHandler{
		BaseHandler:    NewBaseHandler(logger),
		datasetService: datasetService,
	}
}

// UploadDataset replaces the session's dataset with an uploaded file
// @Summary Upload dataset
// @Description Uploads a CSV or XLSX file of graded responses for the current session
// @Tags datasets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 201 {object} SuccessResponse{data=models.DatasetSummary}
// @Failure 400 {object} ErrorResponse
// @Router /datasets [post]
func (h *DatasetHandler) UploadDataset(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "No file uploaded",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Uploading dataset", "filename", fileHeader.Filename, "size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	summary, err := h.datasetService.Upload(c.Request.Context(), sess, fileHeader.Filename, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Dataset uploaded",
		Data:    summary,
	})
}

// GetCurrentDataset describes the session's dataset
// @Summary Current dataset
// @Tags datasets
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.DatasetSummary}
// @Failure 404 {object} ErrorResponse
// @Router /datasets/current [get]
func (h *DatasetHandler) GetCurrentDataset(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	summary, err := h.datasetService.Current(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Current dataset", Data: summary})
}

// ListQuestions returns the distinct question labels of the session's dataset
// @Summary List questions
// @Tags datasets
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]string}
// @Router /datasets/current/questions [get]
func (h *DatasetHandler) ListQuestions(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	questions, err := h.datasetService.Questions(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Questions", Data: questions})
}

// SearchDataset finds rows containing a keyword
// @Summary Search dataset
// @Tags datasets
// @Produce json
// @Param q query string true "Keyword"
// @Param columns query []string false "Columns to search"
// @Success 200 {object} SuccessResponse{data=services.SearchResult}
// @Failure 400 {object} ErrorResponse
// @Router /datasets/current/search [get]
func (h *DatasetHandler) SearchDataset(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	result, err := h.datasetService.Search(c.Request.Context(), sess, c.Query("q"), ParseListQuery(c, "columns"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Search results", Data: result})
}

// ResetDataset switches the session back to the default dataset
// @Summary Reset dataset
// @Tags datasets
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.DatasetSummary}
// @Router /datasets/current [delete]
func (h *DatasetHandler) ResetDataset(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	summary, err := h.datasetService.Reset(c.Request.Context(), sess)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Dataset reset to default", Data: summary})
}
