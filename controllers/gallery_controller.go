package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"imagelib/config"
	"imagelib/models"
	"imagelib/templates"
	"imagelib/utils"
)

const (
	galleryCachePrefix = "cache:uploads:"
	galleryCacheKey    = galleryCachePrefix + "recent"

	// Records beyond the newest galleryLimit are invisible to the page.
	galleryLimit = 100
)

// GalleryController renders the gallery page and handles single and bulk
// deletion of uploads.
type GalleryController struct {
	db  *gorm.DB
	dir string
}

// NewGalleryController creates a GalleryController resolving legacy rows
// without a stored path against dir.
func NewGalleryController(db *gorm.DB, dir string) *GalleryController {
	return &GalleryController{db: db, dir: dir}
}

// Gallery renders the newest uploads as a card grid.
func (g *GalleryController) Gallery(ctx *gin.Context) {
	var rows []models.Upload
	if !utils.CacheGetJSON(galleryCacheKey, &rows) {
		if err := g.db.WithContext(ctx.Request.Context()).
			Order("id DESC").Limit(galleryLimit).Find(&rows).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to list uploads"})
			return
		}
		ttl := time.Duration(config.Get().CacheTTLSeconds) * time.Second
		utils.CacheSetJSON(galleryCacheKey, rows, ttl)
	}

	cards := make([]templates.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, templates.Card{
			ID:        r.ID,
			URL:       "/uploads/" + r.Filename,
			Caption:   r.Caption,
			CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.Status(http.StatusOK)
	if err := templates.Gallery.Execute(ctx.Writer, templates.GalleryData{Cards: cards}); err != nil && utils.Sugar != nil {
		utils.Sugar.Errorf("gallery render failed: %v", err)
	}
}

// Delete removes one upload: the backing file best-effort, then the row. Row
// deletion always wins over a file-removal failure.
func (g *GalleryController) Delete(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("item_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
		return
	}

	db := g.db.WithContext(ctx.Request.Context())

	var row models.Upload
	if err := db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to look up upload"})
		return
	}

	g.removeFile(row)

	if err := db.Delete(&models.Upload{}, row.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete upload"})
		return
	}

	utils.InvalidateByPrefix(galleryCachePrefix)
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "deleted_id": id})
}

type bulkDeleteRequest struct {
	IDs []int `json:"ids"`
}

// BulkDelete removes a batch of uploads, separating hits from misses. A
// missing id never aborts the batch; row deletions commit together after the
// loop while file removals happen eagerly per id.
func (g *GalleryController) BulkDelete(ctx *gin.Context) {
	var req bulkDeleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request payload"})
		return
	}
	if len(req.IDs) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "ids is empty"})
		return
	}

	deleted := make([]int, 0, len(req.IDs))
	missing := make([]int, 0)

	err := g.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, id := range req.IDs {
			var row models.Upload
			if err := tx.First(&row, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					missing = append(missing, id)
					continue
				}
				return err
			}
			g.removeFile(row)
			if err := tx.Delete(&models.Upload{}, row.ID).Error; err != nil {
				return err
			}
			deleted = append(deleted, id)
		}
		return nil
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete uploads"})
		return
	}

	utils.InvalidateByPrefix(galleryCachePrefix)
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "deleted_ids": deleted, "missing_ids": missing})
}

// removeFile deletes the file backing row, swallowing every error. Legacy
// rows without a stored path resolve against the upload directory.
func (g *GalleryController) removeFile(row models.Upload) {
	path := row.Path
	if path == "" {
		path = filepath.Join(g.dir, row.Filename)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) && utils.Sugar != nil {
		utils.Sugar.Warnf("file removal failed for upload %d (%s): %v", row.ID, path, err)
	}
}
