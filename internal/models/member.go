package models

import (
	"time"

	"github.com/google/uuid"
)

type AccessLevel string

const (
	AccessNone   AccessLevel = "none"
	AccessViewer AccessLevel = "viewer"
	AccessEditor AccessLevel = "editor"
	AccessAdmin  AccessLevel = "admin"
	AccessOwner  AccessLevel = "owner"
)

// rank orders levels for AtLeast comparisons
func (l AccessLevel) rank() int {
	switch l {
	case AccessViewer:
		return 1
	case AccessEditor:
		return 2
	case AccessAdmin:
		return 3
	case AccessOwner:
		return 4
	}
	return 0
}

func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l.rank() >= min.rank()
}

// ProjectMember grants an identity an access level on one project.
type ProjectMember struct {
	ID        uuid.UUID   `gorm:"primarykey" json:"id"`
	ProjectID uuid.UUID   `gorm:"not null;index" json:"project_id"`
	Identity  string      `gorm:"not null;index" json:"identity"`
	Level     AccessLevel `gorm:"not null" json:"level"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
