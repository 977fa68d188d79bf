package dto

import (
	"Go_Vault/model"
	"time"
)

// FileResponse is a file record as returned to its owner.
type FileResponse struct {
	ID          uint64     `json:"id"`
	StorageKey  string     `json:"s3Key"`
	DisplayName string     `json:"displayName"`
	Size        int64      `json:"size"`
	ContentType string     `json:"contentType"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

func NewFileResponse(rec *model.FileRecord) FileResponse {
	return FileResponse{
		ID:          rec.ID,
		StorageKey:  rec.StorageKey,
		DisplayName: rec.DisplayName,
		Size:        rec.Size,
		ContentType: rec.ContentType,
		UploadedAt:  rec.UploadedAt,
		DeletedAt:   rec.DeletedAt,
	}
}

// AuditLogResponse is one activity row.
type AuditLogResponse struct {
	Action          string    `json:"action"`
	PerformedBy     string    `json:"performedBy"`
	Description     string    `json:"description"`
	Timestamp       time.Time `json:"timestamp"`
	FileDisplayName string    `json:"fileDisplayName,omitempty"`
}

func NewAuditLogResponses(entries []model.AuditEntry) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditLogResponse{
			Action:          e.Action,
			PerformedBy:     e.PerformedBy,
			Description:     e.Description,
			Timestamp:       e.Timestamp,
			FileDisplayName: e.FileName,
		})
	}
	return out
}
