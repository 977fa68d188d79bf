package model

import "time"

// FileRecord maps one stored object to its owner and display name.
// Folders are not stored; they are the "/"-terminated prefixes of DisplayName.
type FileRecord struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	StorageKey  string `gorm:"column:storage_key;size:512;not null;uniqueIndex" json:"storage_key"`
	DisplayName string `gorm:"column:display_name;size:1024;not null" json:"display_name"`

	UserID uint64 `gorm:"column:user_id;not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID" json:"-"`

	Size        int64      `gorm:"column:size;not null;default:0" json:"size"`
	ContentType string     `gorm:"column:content_type;size:128;not null;default:''" json:"content_type"`
	UploadedAt  time.Time  `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"` // nil = active
}

// TableName returns the database table name.
func (FileRecord) TableName() string {
	return "file_record"
}

// IsTrashed reports whether the record is soft-deleted.
func (f FileRecord) IsTrashed() bool {
	return f.DeletedAt != nil
}
