package models

import "time"

// CategoryStatus is the lifecycle state of a category.
type CategoryStatus string

const (
	CategoryActive   CategoryStatus = "ACTIVE"
	CategoryInactive CategoryStatus = "INACTIVE"
	CategoryArchived CategoryStatus = "ARCHIVED"
)

// Valid reports whether s is a known category status.
func (s CategoryStatus) Valid() bool {
	return s == CategoryActive || s == CategoryInactive || s == CategoryArchived
}

// Category groups posts by subject.
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description *string        `gorm:"type:text" json:"description"`
	Status      CategoryStatus `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	CreatedByID *uint          `gorm:"index" json:"created_by_id"`
	CreatedBy   *User          `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	// PostsCount counts PUBLISHED posts and is filled by the repository.
	PostsCount int64     `gorm:"-" json:"posts_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
