package domain

import "time"

// Department is the top hierarchy level, derived from the first path
// segment. Name is the natural key.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category (Phân Mục) is the second path segment. Name is the natural key.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Topic (Loại) is the third path segment. Uniqueness is scoped to
// (CategoryID, Slug), not global.
type Topic struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	CategoryID string `json:"category_id"`
}

// Brand is a canonicalized manufacturer label, unique globally by name.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MachineModel is a product series (e.g. "MPC"), not a specific unit.
// Name is unique globally across brands; BrandID may be empty until a
// brand is known and is backfilled opportunistically.
type MachineModel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BrandID string `json:"brand_id,omitempty"`
}

// Tag is a free-form label. Specific model numbers ("MPC 3054") live
// here rather than in MachineModel.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FileAsset is a content-addressed stored file. Hash is the dedup
// authority: identical bytes anywhere in the tree map to one asset.
type FileAsset struct {
	ID          string    `json:"id"`
	Hash        string    `json:"hash"`
	StoragePath string    `json:"storage_path"`
	Bucket      string    `json:"bucket"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document is the ingestion target.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TopicID   string    `json:"topic_id"`
	AssetID   string    `json:"asset_id"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TechnicalMetadata is the 1:1 extension of Document holding the
// taxonomy links produced by classification.
type TechnicalMetadata struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	DepartmentID string `json:"department_id"`
	CategoryID   string `json:"category_id"`
	TopicID      string `json:"topic_id"`
	BrandID      string `json:"brand_id,omitempty"`
	Source       Source `json:"source"`
}
