package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub/backend/internal/metrics"
)

// UploadMedia godoc
// @Summary      Upload a chat image
// @Description  Validates (JPEG/PNG/GIF/WEBP, size-capped) and stores the file, returning its URL. Send the URL as an image or gif message afterwards.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image file"
// @Success      201 {object} map[string]string "{"url": "/media/..."}"
// @Failure      400 {object} ErrorResponse "Disallowed type or size"
// @Router       /uploads [post]
func UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	url, err := Uploads.Upload(c.Request.Context(), content, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		chatError(c, err)
		return
	}

	metrics.MediaUploads.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
