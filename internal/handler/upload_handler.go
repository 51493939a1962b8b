package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"learnly/internal/middleware"
	"learnly/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	cloud cloudinary.Client
}

func NewUploadHandler(cloud cloudinary.Client) *UploadHandler {
	return &UploadHandler{cloud: cloud}
}

func mediaPublicID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}

// UploadThumbnail uploads a course thumbnail image. Returns both the full URL
// and a resized thumbnail URL for catalog cards.
func (h *UploadHandler) UploadThumbnail(c *gin.Context) {
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	folder := "learnly/thumbnails/" + strconv.FormatUint(uint64(userID), 10)

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	url, thumbURL, err := h.cloud.UploadImage(c.Request.Context(), f, folder, mediaPublicID("thumb"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "thumbnail_url": thumbURL})
}

// UploadVideo uploads a lesson video and returns a poster frame alongside it.
func (h *UploadHandler) UploadVideo(c *gin.Context) {
	userID := middleware.GetUserID(c)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	folder := "learnly/videos/" + strconv.FormatUint(uint64(userID), 10)

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	url, posterURL, err := h.cloud.UploadVideo(c.Request.Context(), f, folder, mediaPublicID("vid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "poster_url": posterURL})
}
