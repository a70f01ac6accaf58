package controllers

import (
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"imagelib/models"
	"imagelib/utils"
)

// UploadController handles upload, retrieval and the echo endpoint under /s2.
type UploadController struct {
	db  *gorm.DB
	dir string
}

// NewUploadController creates an UploadController storing files under dir.
func NewUploadController(db *gorm.DB, dir string) *UploadController {
	return &UploadController{db: db, dir: dir}
}

// Echo returns the txt query parameter as-is.
func (u *UploadController) Echo(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"result": ctx.Query("txt")})
}

// Upload accepts a multipart form with a caption ("txt") and a file, writes
// the file under a freshly generated name and inserts the metadata row. There
// is no rollback path: if the insert fails after the write, the file stays
// behind unreferenced.
func (u *UploadController) Upload(ctx *gin.Context) {
	caption, ok := ctx.GetPostForm("txt")
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "txt field is required"})
		return
	}
	caption = utils.Sanitize(caption)

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "no file uploaded"})
		return
	}
	defer file.Close()

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create upload directory"})
		return
	}

	name := storedFilename(header.Filename)
	path := filepath.Join(u.dir, name)

	out, err := os.Create(path)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to save file"})
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		_ = os.Remove(path)
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to write file"})
		return
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to write file"})
		return
	}

	row := models.Upload{Caption: caption, Filename: name, Path: path}
	if err := u.db.WithContext(ctx.Request.Context()).Create(&row).Error; err != nil {
		// The file written above is now orphaned; accepted behavior.
		if utils.Sugar != nil {
			utils.Sugar.Errorf("upload insert failed, file %s orphaned: %v", path, err)
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to record upload"})
		return
	}

	utils.InvalidateByPrefix(galleryCachePrefix)

	ctx.JSON(http.StatusOK, gin.H{
		"id":       row.ID,
		"result":   caption,
		"filename": name,
		"path":     path,
	})
}

// Read serves a stored file back by name with a content type inferred from
// its extension and an inline disposition hint.
func (u *UploadController) Read(ctx *gin.Context) {
	name := ctx.Query("fileName")
	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "fileName is required"})
		return
	}

	// Reduce to the base component so the lookup cannot escape the upload
	// directory.
	name = filepath.Base(name)
	path := filepath.Join(u.dir, name)

	if _, err := os.Stat(path); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
		return
	}

	ctx.Header("Content-Disposition", "inline; filename='"+name+"'")
	ctx.File(path)
}

// storedFilename generates a unique on-disk name: a random 128-bit hex token
// plus the original extension. The extension is whatever follows the last
// dot, empty when there is none; the separator is always present.
func storedFilename(original string) string {
	ext := ""
	if i := strings.LastIndex(original, "."); i >= 0 {
		ext = original[i+1:]
	}
	token := uuid.New()
	return hex.EncodeToString(token[:]) + "." + ext
}
