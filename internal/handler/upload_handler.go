package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

const (
	maxUploadBytes    = 5 << 20
	maxImageDimension = 8000
	defaultUploadDir  = "web/static/uploads"
	defaultUploadURL  = "/static/uploads"
)

var allowedImageFormats = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// UploadImage stores a featured image and returns its public URL.
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "image must be at most 5MB")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "cannot read uploaded file")
		return
	}
	cfg, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "only jpeg, png, gif and webp images are allowed")
		return
	}
	ext, ok := allowedImageFormats[format]
	if !ok {
		respondError(c, http.StatusBadRequest, "only jpeg, png, gif and webp images are allowed")
		return
	}
	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		respondError(c, http.StatusBadRequest, "image dimensions are too large")
		return
	}

	uploadDir := strings.TrimSpace(a.uploadDir)
	if uploadDir == "" {
		uploadDir = defaultUploadDir
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", uploadDir).Msg("failed to create upload directory")
		respondError(c, http.StatusInternalServerError, "failed to store image")
		return
	}

	// 生成唯一文件名
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, newFilename)); err != nil {
		log.Error().Err(err).Msg("failed to save upload")
		respondError(c, http.StatusInternalServerError, "failed to store image")
		return
	}

	uploadURL := strings.TrimSpace(a.uploadURL)
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}
	fileURL := path.Join("/", uploadURL, newFilename)

	c.JSON(http.StatusCreated, gin.H{
		"url":    fileURL,
		"width":  cfg.Width,
		"height": cfg.Height,
		"format": format,
	})
}
