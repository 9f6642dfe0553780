package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Catalog tables the support agent reads through its lookup tools.
// These are owned by the main site's CRUD surface; the chat subsystem
// only ever reads them.

// Package is an event decoration package
type Package struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	Title        string        `json:"title" gorm:"not null"`
	Description  string        `json:"description" gorm:"type:text"`
	Price        float64       `json:"price" gorm:"not null"`
	IsPopular    bool          `json:"is_popular" gorm:"default:false"`
	DisplayOrder int           `json:"display_order" gorm:"default:0"`
	Items        []PackageItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// PackageItem is one line item included in a package
type PackageItem struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	PackageID    uint   `json:"package_id" gorm:"index;not null"`
	ItemText     string `json:"item_text" gorm:"not null"`
	DisplayOrder int    `json:"display_order" gorm:"default:0"`
}

// Theme is a decoration theme
type Theme struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Featured    bool      `json:"featured" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FAQ is a frequently asked question entry
type FAQ struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Question     string    `json:"question" gorm:"not null"`
	Answer       string    `json:"answer" gorm:"type:text;not null"`
	Category     string    `json:"category"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
}

// BeforeCreate assigns a UUID if one is not set
func (f *FAQ) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// PackageEnhancement is an add-on that can be attached to any package
type PackageEnhancement struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text;not null"`
	StartingPrice float64   `json:"starting_price" gorm:"not null"`
	Category      string    `json:"category"`
	IsAvailable   bool      `json:"is_available" gorm:"default:true"`
	DisplayOrder  int       `json:"display_order" gorm:"default:0"`
}

// BeforeCreate assigns a UUID if one is not set
func (e *PackageEnhancement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Testimonial is a customer review
type Testimonial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Rating    float64   `json:"rating" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// GalleryItem is a portfolio image with metadata
type GalleryItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null"`
	Description  string    `json:"description" gorm:"type:text"`
	ImageURL     string    `json:"image_url" gorm:"not null"`
	Category     string    `json:"category" gorm:"index;not null"`
	DisplayOrder int       `json:"display_order" gorm:"default:0"`
	IsFeatured   bool      `json:"is_featured" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}
