package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"backend/internal/media"
)

const maxUploadBytes = 25 << 20

var allowedUploadFolders = map[string]bool{
	"products": true,
	"banners":  true,
	"catalog":  true,
}

/*
POST /admin/api/uploads
- Multipart field "file"; ?folder= selects the Cloudinary folder. Uploads use a
  longer deadline than the usual request budget since video banners are large.
*/
func UploadMedia(mediaClient *media.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/uploads"
		defer handlePanic(c, route)

		folder := strings.TrimSpace(c.Query("folder"))
		if folder == "" {
			folder = "products"
		}
		if !allowedUploadFolders[folder] {
			respondWithError(c, http.StatusBadRequest, route, "invalid folder", "folder must be products, banners or catalog")
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "file required", "multipart field 'file' is missing")
			return
		}
		if header.Size > maxUploadBytes {
			respondWithError(c, http.StatusRequestEntityTooLarge, route, "file too large", "uploads are capped at 25MB")
			return
		}

		file, err := header.Open()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "unreadable file", "could not open uploaded file")
			return
		}
		defer file.Close()

		ctx, cancel := contextWithTimeout(c, 60*time.Second)
		defer cancel()

		upload, err := mediaClient.UploadFile(ctx, file, folder)
		if err != nil {
			respondWithError(c, http.StatusBadGateway, route, "upload failed", "media storage rejected the upload")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": upload})
	}
}

/*
DELETE /admin/api/uploads
- Body: {"publicId": "...", "resourceType": "image"|"video"}.
*/
func DeleteMedia(mediaClient *media.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/uploads"
		defer handlePanic(c, route)

		var req struct {
			PublicID     string `json:"publicId" binding:"required"`
			ResourceType string `json:"resourceType" binding:"omitempty,oneof=image video"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := mediaClient.Destroy(ctx, req.PublicID, req.ResourceType); err != nil {
			respondWithError(c, http.StatusBadGateway, route, "delete failed", "media storage rejected the delete")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
