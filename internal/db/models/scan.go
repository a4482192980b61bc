package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Scan is one completed recognition: the predicted label and category, the
// confidence percentage, and a content hash locating the stored photo.
type Scan struct {
	bun.BaseModel `bun:"table:scans"`

	ID         uuid.UUID    `bun:",pk" json:"id"`
	Label      string       `bun:",notnull" json:"label"`
	Category   string       `bun:",notnull" json:"category"`
	Confidence float64      `bun:",notnull" json:"confidence"`
	ImageHash  string       `bun:",notnull" json:"image_hash"`
	ImageURL   string       `json:"image_url,omitempty"`
	Source     string       `json:"source,omitempty"`
	CreatedAt  bun.NullTime `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}
