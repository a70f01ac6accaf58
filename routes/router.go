package routes

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"imagelib/config"
	"imagelib/controllers"
	"imagelib/middleware"
	"imagelib/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(utils.GinLogger(utils.Logger))
		r.Use(utils.GinRecovery(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded files are public under /uploads; the front-end shell lives
	// under /static with index.html at the root.
	r.Static("/uploads", cfg.UploadDir)
	r.Static("/static", cfg.StaticDir)
	r.GET("/", func(ctx *gin.Context) {
		ctx.File(filepath.Join(cfg.StaticDir, "index.html"))
	})

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	uploadController := controllers.NewUploadController(db, cfg.UploadDir)
	galleryController := controllers.NewGalleryController(db, cfg.UploadDir)

	s2 := r.Group("/s2")
	s2.GET("/", uploadController.Echo)
	s2.POST("/", middleware.RateLimit(), uploadController.Upload)
	s2.GET("/read", uploadController.Read)

	gallery := r.Group("/gallery")
	gallery.GET("/", galleryController.Gallery)
	gallery.DELETE("/:item_id", middleware.RateLimit(), galleryController.Delete)
	gallery.POST("/bulk-delete", middleware.RateLimit(), galleryController.BulkDelete)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Not found"})
	})

	return r
}
