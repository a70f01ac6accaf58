package models

import "time"

// Upload records one stored image: the user caption, the server-generated
// filename the bytes live under, and the full path at write time. Path may be
// empty on legacy rows; callers fall back to <upload dir>/<filename>.
type Upload struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Caption   string    `gorm:"column:txt;size:255;not null" json:"caption"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	Path      string    `gorm:"size:500" json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

func (Upload) TableName() string {
	return "uploads"
}
