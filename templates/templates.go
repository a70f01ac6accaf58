package templates

import (
	"embed"
	"html/template"
)

//go:embed gallery.html
var files embed.FS

// Gallery is the parsed gallery page template.
var Gallery = template.Must(template.ParseFS(files, "gallery.html"))

// Card is the view model for one gallery entry.
type Card struct {
	ID        uint
	URL       string
	Caption   string
	CreatedAt string
}

// GalleryData is the root context for the gallery template.
type GalleryData struct {
	Cards []Card
}
