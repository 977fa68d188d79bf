package service

import (
	"Go_Vault/model"
	"context"
	"log"
	"time"
)

// Audit action vocabulary.
const (
	ActionFileUpload          = "FILE_UPLOAD"
	ActionFileDelete          = "FILE_DELETE"
	ActionFileRename          = "FILE_RENAME"
	ActionFileMove            = "FILE_MOVE"
	ActionFileSoftDelete      = "FILE_SOFT_DELETE"
	ActionFileRestore         = "FILE_RESTORE"
	ActionFilePermanentDelete = "FILE_PERMANENT_DELETE"
	ActionShareFile           = "SHARE_FILE"
	ActionReshareFile         = "RESHARE_FILE"
	ActionAcceptShare         = "ACCEPT_SHARE"
	ActionDeclineShare        = "DECLINE_SHARE"
	ActionRevokeAccess        = "REVOKE_ACCESS"
	ActionUpdateMessage       = "UPDATE_MESSAGE"
	ActionRemoveMessage       = "REMOVE_MESSAGE"
	ActionPublicLinkGenerate  = "PUBLIC_LINK_GENERATION"
	ActionPublicFileAccess    = "PUBLIC_FILE_ACCESS"
	ActionPublicLinkRevoke    = "PUBLIC_LINK_REVOCATION"
	ActionUserRegister        = "USER_REGISTER"
)

const (
	// AuditRetentionCap is the number of entries kept per actor.
	AuditRetentionCap = 100
	// AnonymousActor attributes actions taken through public links.
	AnonymousActor = "anonymous"
	// DefaultActivityDays is the window of the recent-activity read.
	DefaultActivityDays = 30
)

// LogAction appends an audit entry and trims the actor's history to the cap.
// Failures are logged and never returned.
func LogAction(ctx context.Context, action, performedBy string, file *model.FileRecord, description string) {
	ctx = context.WithoutCancel(ctx)
	entry := model.AuditEntry{
		Action:      action,
		PerformedBy: performedBy,
		Description: description,
		Timestamp:   now(),
	}
	if file != nil {
		id := file.ID
		entry.FileID = &id
		entry.FileName = file.DisplayName
	}
	if err := dbWith(ctx).Create(&entry).Error; err != nil {
		log.Printf("audit: append %s for %s failed: %v", action, performedBy, err)
		return
	}
	if err := trimAuditLog(ctx, performedBy); err != nil {
		log.Printf("audit: trim for %s failed: %v", performedBy, err)
	}
}

func trimAuditLog(ctx context.Context, performedBy string) error {
	var count int64
	if err := dbWith(ctx).Model(&model.AuditEntry{}).
		Where("performed_by = ?", performedBy).
		Count(&count).Error; err != nil {
		return err
	}
	if count <= AuditRetentionCap {
		return nil
	}
	var ids []uint64
	if err := dbWith(ctx).Model(&model.AuditEntry{}).
		Where("performed_by = ?", performedBy).
		Order("timestamp ASC").Order("id ASC").
		Limit(int(count-AuditRetentionCap)).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	res := dbWith(ctx).Where("id IN ?", ids).Delete(&model.AuditEntry{})
	if res.Error != nil {
		return res.Error
	}
	auditTrimmedTotal.Add(float64(res.RowsAffected))
	return nil
}

// ListAuditLog returns every entry for the actor, newest first.
func ListAuditLog(ctx context.Context, performedBy string) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := dbWith(ctx).
		Where("performed_by = ?", performedBy).
		Order("timestamp DESC").Order("id DESC").
		Find(&entries).Error
	return entries, err
}

// ListRecentAuditLog returns the actor's entries from the last days days, newest first.
func ListRecentAuditLog(ctx context.Context, performedBy string, days int) ([]model.AuditEntry, error) {
	if days <= 0 {
		days = DefaultActivityDays
	}
	since := now().Add(-time.Duration(days) * 24 * time.Hour)
	var entries []model.AuditEntry
	err := dbWith(ctx).
		Where("performed_by = ? AND timestamp >= ?", performedBy, since).
		Order("timestamp DESC").Order("id DESC").
		Find(&entries).Error
	return entries, err
}
