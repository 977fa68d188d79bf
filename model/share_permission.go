package model

import "time"

type PermissionKind string

const (
	PermissionView PermissionKind = "VIEW"
	PermissionEdit PermissionKind = "EDIT"
)

// Valid reports whether k is one of the two supported kinds.
func (k PermissionKind) Valid() bool {
	return k == PermissionView || k == PermissionEdit
}

type ShareStatus string

const (
	SharePending  ShareStatus = "PENDING"
	ShareAccepted ShareStatus = "ACCEPTED"
	ShareDeclined ShareStatus = "DECLINED"
)

// SharePermission is a grant from a file's owner to one recipient.
// (file_id, recipient_id) is unique; a re-share reuses the row.
type SharePermission struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	FileID uint64     `gorm:"column:file_id;not null;uniqueIndex:uk_file_recipient,priority:1" json:"file_id"`
	File   FileRecord `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	RecipientID uint64 `gorm:"column:recipient_id;not null;index;uniqueIndex:uk_file_recipient,priority:2" json:"recipient_id"`
	Recipient   User   `gorm:"foreignKey:RecipientID;references:ID" json:"-"`

	Kind            PermissionKind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	Message         *string        `gorm:"column:message;type:text" json:"message,omitempty"`
	Status          ShareStatus    `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	SharedAt        time.Time      `gorm:"column:shared_at;not null" json:"shared_at"`
	StatusChangedAt time.Time      `gorm:"column:status_changed_at;not null" json:"status_changed_at"`
}

// TableName returns the database table name.
func (SharePermission) TableName() string {
	return "share_permission"
}
