package model

import "time"

// PublicAccessToken grants anonymous access to one file until ExpiresAt.
type PublicAccessToken struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Token string `gorm:"column:token;size:64;uniqueIndex;not null" json:"token"`

	FileID uint64     `gorm:"column:file_id;not null;index" json:"file_id"`
	File   FileRecord `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	Active    bool      `gorm:"column:active;not null;index" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName returns the database table name.
func (PublicAccessToken) TableName() string {
	return "public_access_token"
}

// Usable reports whether the token can be redeemed at now.
func (t PublicAccessToken) Usable(now time.Time) bool {
	return t.Active && now.Before(t.ExpiresAt)
}
