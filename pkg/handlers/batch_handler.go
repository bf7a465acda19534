package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"churn-predictor-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BatchHandler scores uploaded spreadsheets.
type BatchHandler struct {
	service *services.BatchService
}

// NewBatchHandler creates a BatchHandler.
func NewBatchHandler(service *services.BatchService) *BatchHandler {
	return &BatchHandler{service: service}
}

// PredictBatch reads the multipart "file" (.xlsx or .csv) and scores each row.
// ?format=xlsx returns a workbook instead of JSON.
func (h *BatchHandler) PredictBatch(c *gin.Context) {
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file must be uploaded in the \"file\" field."})
		return
	}
	defer file.Close()

	rows, err := h.service.ReadRows(fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			respondError(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.Score(c.Request.Context(), rows)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			// header or shape problems in the upload
			status = http.StatusBadRequest
		}
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if strings.EqualFold(c.Query("format"), "xlsx") {
		buf, err := h.service.WriteWorkbook(results)
		if err != nil {
			respondError(c, err)
			return
		}
		name := strings.TrimSuffix(filepath.Base(fileHeader.Filename), filepath.Ext(fileHeader.Filename))
		c.Header("Content-Disposition", `attachment; filename="`+name+`-predictions.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"summary": services.Summarize(results),
			"rows":    results,
		},
	})
}
