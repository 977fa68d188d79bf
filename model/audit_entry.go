package model

import "time"

// AuditEntry is one append-only activity row. FileID is kept by value so
// history survives permanent deletion of the file.
type AuditEntry struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Action      string    `gorm:"column:action;size:64;not null;index" json:"action"`
	PerformedBy string    `gorm:"column:performed_by;size:255;not null;index:idx_audit_actor_time,priority:1" json:"performed_by"`
	FileID      *uint64   `gorm:"column:file_id" json:"file_id,omitempty"`
	FileName    string    `gorm:"column:file_name;size:1024;not null;default:''" json:"file_name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;index:idx_audit_actor_time,priority:2" json:"timestamp"`
}

// TableName returns the database table name.
func (AuditEntry) TableName() string {
	return "audit_entry"
}
