package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProjectIndex is the lightweight tabular record: one row per project,
// used for listing/lookup without loading the document blob. The row
// carries the blob locator; the blob carries the content.
type ProjectIndex struct {
	ProjectID              uuid.UUID      `gorm:"primarykey" json:"project_id"`
	ProjectTitle           string         `gorm:"not null" json:"project_title"`
	ProjectFolderLocator   string         `json:"project_folder_locator"`
	Status                 string         `gorm:"default:'draft'" json:"status"`
	ProjectDataBlobLocator string         `json:"project_data_blob_locator"`
	LastModified           time.Time      `json:"last_modified"`
	CreatedDate            time.Time      `json:"created_date"`
	Summary                datatypes.JSON `json:"summary"`
}

func (ProjectIndex) TableName() string {
	return "project_index"
}

// IndexSummary is the denormalized content snapshot stored in
// ProjectIndex.Summary, refreshed on each successful save.
type IndexSummary struct {
	SlideCount   int `json:"slideCount"`
	ElementCount int `json:"elementCount"`
}
