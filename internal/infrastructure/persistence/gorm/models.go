// Package gorm provides GORM models for database persistence
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeModel represents the database model for recipes
type RecipeModel struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Title        string      `gorm:"size:200;not null;index"`
	Description  string      `gorm:"type:text"`
	Ingredients  StringSlice `gorm:"not null"`
	Instructions StringSlice `gorm:"not null"`

	// Image holds the payload inline unless an object store is configured,
	// in which case ImageKey points at the stored object.
	Image       []byte
	ImageKey    string `gorm:"size:255"`
	ImageDigest string `gorm:"size:64"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// StringSlice custom type for handling ordered string lists as JSON
type StringSlice []string

// GormDataType stores the list as text in dialects without a JSON type
func (StringSlice) GormDataType() string {
	return "text"
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for RecipeModel
func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName overrides
func (RecipeModel) TableName() string {
	return "recipes"
}
