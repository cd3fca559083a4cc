package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// University represents a partner institution. Rows are managed by
// administrators (seeding or backoffice tooling); the ingestion engine only
// ever resolves them by name and never creates or deletes one.
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name    string `gorm:"not null" json:"name"`
	NameKey string `gorm:"not null;uniqueIndex" json:"-"`
	NameCN  string `gorm:"type:varchar(255)" json:"name_cn,omitempty"`

	City            string         `gorm:"type:varchar(120)" json:"city,omitempty"`
	Province        string         `gorm:"type:varchar(120)" json:"province,omitempty"`
	Country         string         `gorm:"type:varchar(120);default:China" json:"country"`
	IsPartner       bool           `gorm:"default:true" json:"is_partner"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	Aliases         datatypes.JSON `json:"aliases,omitempty"`      // e.g. ["Beihang", "BUAA"]
	ProjectTags     datatypes.JSON `json:"project_tags,omitempty"` // e.g. ["211", "985", "C9"]
	DefaultCurrency string         `gorm:"type:varchar(8);default:CNY" json:"default_currency"`
	Website         string         `gorm:"type:varchar(255)" json:"website,omitempty"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Majors []Major `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"majors,omitempty"`
}

// BeforeSave keeps the lookup key in sync with the display name.
func (u *University) BeforeSave(tx *gorm.DB) error {
	u.Name = NormalizeName(u.Name)
	u.NameKey = NameKey(u.Name)
	return nil
}
