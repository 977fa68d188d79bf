package service

import (
	"Go_Vault/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ShareRequest is the input of ShareFile.
type ShareRequest struct {
	FileID         uint64
	RecipientEmail string
	Kind           model.PermissionKind
	Message        string
}

// SharedFile is a permission seen from the recipient's inbox.
type SharedFile struct {
	PermissionID    uint64               `json:"permission_id"`
	FileID          uint64               `json:"file_id"`
	DisplayName     string               `json:"display_name"`
	SharedBy        string               `json:"shared_by"`
	StorageKey      string               `json:"storage_key"`
	Kind            model.PermissionKind `json:"permission_type"`
	Message         *string              `json:"message,omitempty"`
	SharedAt        time.Time            `json:"shared_at"`
	Status          model.ShareStatus    `json:"share_status"`
	StatusChangedAt time.Time            `json:"share_status_changed_at"`
}

// ShareRecipient is a permission seen from the owner's side.
type ShareRecipient struct {
	PermissionID    uint64               `json:"permission_id"`
	FileID          uint64               `json:"file_id"`
	DisplayName     string               `json:"display_name"`
	RecipientEmail  string               `json:"recipient_email"`
	RecipientName   string               `json:"recipient_name"`
	Kind            model.PermissionKind `json:"permission_type"`
	Message         *string              `json:"message,omitempty"`
	SharedAt        time.Time            `json:"shared_at"`
	Status          model.ShareStatus    `json:"share_status"`
	StatusChangedAt time.Time            `json:"share_status_changed_at"`
}

var visibleShareStatuses = []model.ShareStatus{model.SharePending, model.ShareAccepted}

func optionalMessage(message string) *string {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	return &message
}

// lockOwnedFile locks a file and checks that ownerID owns it and it is not trashed.
func lockOwnedFile(tx *gorm.DB, fileID, ownerID uint64) (*model.FileRecord, error) {
	rec, err := lockFileByID(tx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != ownerID {
		return nil, kindErr(ErrAccessDenied, "you do not own %s", rec.DisplayName)
	}
	if rec.IsTrashed() {
		return nil, kindErr(ErrInvalidState, "%s is in trash", rec.DisplayName)
	}
	return rec, nil
}

func lockPermission(tx *gorm.DB, fileID, recipientID uint64) (*model.SharePermission, error) {
	var perm model.SharePermission
	err := forUpdate(tx).
		Where("file_id = ? AND recipient_id = ?", fileID, recipientID).
		First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// ShareFile grants recipient access, or moves an accepted/declined grant back to PENDING.
// It reports whether an existing row was reused.
func ShareFile(ctx context.Context, req ShareRequest, senderEmail string) (*model.SharePermission, bool, error) {
	if req.Kind == "" {
		req.Kind = model.PermissionView
	}
	if !req.Kind.Valid() {
		return nil, false, kindErr(ErrValidation, "unknown permission type %q", req.Kind)
	}
	sender, err := FindUserByEmail(ctx, senderEmail)
	if err != nil {
		return nil, false, err
	}
	recipient, err := FindUserByEmail(ctx, req.RecipientEmail)
	if err != nil {
		return nil, false, err
	}
	if sender.ID == recipient.ID {
		return nil, false, kindErr(ErrValidation, "cannot share a file with yourself")
	}

	var rec *model.FileRecord
	var perm *model.SharePermission
	reshared := false
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockOwnedFile(tx, req.FileID, sender.ID); err != nil {
			return err
		}
		t := now()
		perm, err = lockPermission(tx, rec.ID, recipient.ID)
		switch {
		case err == nil:
			if perm.Status == model.SharePending {
				return kindErr(ErrConflict, "%s already has a pending share of %s", recipient.Email, rec.DisplayName)
			}
			perm.Kind = req.Kind
			perm.Message = optionalMessage(req.Message)
			perm.Status = model.SharePending
			perm.SharedAt = t
			perm.StatusChangedAt = t
			reshared = true
			return tx.Model(perm).Select("kind", "message", "status", "shared_at", "status_changed_at").Updates(perm).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			perm = &model.SharePermission{
				FileID:          rec.ID,
				RecipientID:     recipient.ID,
				Kind:            req.Kind,
				Message:         optionalMessage(req.Message),
				Status:          model.SharePending,
				SharedAt:        t,
				StatusChangedAt: t,
			}
			if err := tx.Create(perm).Error; err != nil {
				if isDuplicateKey(err) {
					return kindErr(ErrConflict, "%s already has a share of %s", recipient.Email, rec.DisplayName)
				}
				return err
			}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}

	action, verb := ActionShareFile, "Shared"
	if reshared {
		action, verb = ActionReshareFile, "Re-shared"
	}
	LogAction(ctx, action, sender.Email, rec,
		fmt.Sprintf("%s file '%s' with %s (%s)", verb, rec.DisplayName, recipient.Email, req.Kind))

	n := ShareNotification{
		PermissionID:   perm.ID,
		RecipientEmail: recipient.Email,
		SharedBy:       sender.DisplayName(),
		FileName:       rec.DisplayName,
		Permission:     string(req.Kind),
		Reshare:        reshared,
	}
	if perm.Message != nil {
		n.Message = *perm.Message
	}
	publishShareNotification(ctx, n)
	return perm, reshared, nil
}

// AcceptShare moves a pending share to ACCEPTED. Only the recipient may do this.
func AcceptShare(ctx context.Context, permissionID uint64, callerEmail string) (*model.SharePermission, error) {
	return respondToShare(ctx, permissionID, callerEmail, model.ShareAccepted)
}

// DeclineShare moves a pending share to DECLINED. Only the recipient may do this.
func DeclineShare(ctx context.Context, permissionID uint64, callerEmail string) (*model.SharePermission, error) {
	return respondToShare(ctx, permissionID, callerEmail, model.ShareDeclined)
}

func respondToShare(ctx context.Context, permissionID uint64, callerEmail string, status model.ShareStatus) (*model.SharePermission, error) {
	caller, err := FindUserByEmail(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	var perm model.SharePermission
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("id = ?", permissionID).First(&perm).Error; err != nil {
			return notFoundOr(err, "share %d", permissionID)
		}
		if perm.RecipientID != caller.ID {
			return kindErr(ErrAccessDenied, "only the recipient can respond to this share")
		}
		if perm.Status != model.SharePending {
			return kindErr(ErrInvalidState, "share is already %s", strings.ToLower(string(perm.Status)))
		}
		if err := tx.Where("id = ?", perm.FileID).First(&perm.File).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", perm.File.UserID).First(&perm.File.User).Error; err != nil {
			return err
		}
		perm.Status = status
		perm.StatusChangedAt = now()
		return tx.Model(&perm).Select("status", "status_changed_at").Updates(&perm).Error
	})
	if err != nil {
		return nil, err
	}

	action, verb := ActionAcceptShare, "accepted"
	if status == model.ShareDeclined {
		action, verb = ActionDeclineShare, "declined"
	}
	owner := perm.File.User.Email
	LogAction(ctx, action, caller.Email, &perm.File,
		fmt.Sprintf("You %s '%s' shared by %s", verb, perm.File.DisplayName, owner))
	LogAction(ctx, action, owner, &perm.File,
		fmt.Sprintf("%s %s your share of '%s'", caller.Email, verb, perm.File.DisplayName))
	return &perm, nil
}

// RevokeAccess deletes every permission row for (file, recipient), whatever its status.
func RevokeAccess(ctx context.Context, fileID uint64, recipientEmail, ownerEmail string) error {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return err
	}
	recipient, err := FindUserByEmail(ctx, recipientEmail)
	if err != nil {
		return kindErr(ErrNotFound, "no share of file %d for %s", fileID, recipientEmail)
	}
	var rec *model.FileRecord
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByID(tx, fileID); err != nil {
			return err
		}
		if rec.UserID != owner.ID {
			return kindErr(ErrAccessDenied, "you do not own %s", rec.DisplayName)
		}
		res := tx.Where("file_id = ? AND recipient_id = ?", fileID, recipient.ID).Delete(&model.SharePermission{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return kindErr(ErrNotFound, "no share of %s for %s", rec.DisplayName, recipient.Email)
		}
		return nil
	})
	if err != nil {
		return err
	}
	LogAction(ctx, ActionRevokeAccess, owner.Email, rec,
		fmt.Sprintf("Revoked access to '%s' for %s", rec.DisplayName, recipient.Email))
	return nil
}

// UpdateShareMessage replaces the message on a share. Owner only.
func UpdateShareMessage(ctx context.Context, fileID uint64, recipientEmail, message, ownerEmail string) (*model.SharePermission, error) {
	msg := optionalMessage(message)
	if msg == nil {
		return nil, kindErr(ErrValidation, "message is required")
	}
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	recipient, err := FindUserByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, err
	}
	var rec *model.FileRecord
	var perm *model.SharePermission
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByID(tx, fileID); err != nil {
			return err
		}
		if rec.UserID != owner.ID {
			return kindErr(ErrAccessDenied, "only the owner can edit the share message")
		}
		if perm, err = lockPermission(tx, fileID, recipient.ID); err != nil {
			return notFoundOr(err, "no share of %s for %s", rec.DisplayName, recipient.Email)
		}
		perm.Message = msg
		return tx.Model(perm).Update("message", *msg).Error
	})
	if err != nil {
		return nil, err
	}
	LogAction(ctx, ActionUpdateMessage, owner.Email, rec,
		fmt.Sprintf("Updated share message on '%s' for %s", rec.DisplayName, recipient.Email))
	return perm, nil
}

// RemoveShareMessage clears the message on a share. The owner or the recipient may do this.
func RemoveShareMessage(ctx context.Context, fileID uint64, recipientEmail, callerEmail string) error {
	caller, err := FindUserByEmail(ctx, callerEmail)
	if err != nil {
		return err
	}
	recipient, err := FindUserByEmail(ctx, recipientEmail)
	if err != nil {
		return err
	}
	var rec *model.FileRecord
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByID(tx, fileID); err != nil {
			return err
		}
		if caller.ID != rec.UserID && caller.ID != recipient.ID {
			return kindErr(ErrAccessDenied, "only the owner or recipient can remove the share message")
		}
		perm, err := lockPermission(tx, fileID, recipient.ID)
		if err != nil {
			return notFoundOr(err, "no share of %s for %s", rec.DisplayName, recipient.Email)
		}
		return tx.Model(perm).Update("message", nil).Error
	})
	if err != nil {
		return err
	}
	LogAction(ctx, ActionRemoveMessage, caller.Email, rec,
		fmt.Sprintf("Removed share message on '%s' for %s", rec.DisplayName, recipient.Email))
	return nil
}

// ListSharedWithUser returns pending and accepted shares addressed to the user.
func ListSharedWithUser(ctx context.Context, email string) ([]SharedFile, error) {
	user, err := FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	var perms []model.SharePermission
	err = dbWith(ctx).
		Joins("JOIN file_record ON file_record.id = share_permission.file_id").
		Where("share_permission.recipient_id = ? AND share_permission.status IN ? AND file_record.deleted_at IS NULL",
			user.ID, visibleShareStatuses).
		Preload("File").Preload("File.User").
		Order("share_permission.shared_at DESC").Order("share_permission.id DESC").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	out := make([]SharedFile, 0, len(perms))
	for _, p := range perms {
		out = append(out, SharedFile{
			PermissionID:    p.ID,
			FileID:          p.FileID,
			DisplayName:     p.File.DisplayName,
			SharedBy:        p.File.User.Email,
			StorageKey:      p.File.StorageKey,
			Kind:            p.Kind,
			Message:         p.Message,
			SharedAt:        p.SharedAt,
			Status:          p.Status,
			StatusChangedAt: p.StatusChangedAt,
		})
	}
	return out, nil
}

func listRecipients(ctx context.Context, query *gorm.DB) ([]ShareRecipient, error) {
	var perms []model.SharePermission
	err := query.
		Where("share_permission.status IN ?", visibleShareStatuses).
		Preload("File").Preload("Recipient").
		Order("share_permission.shared_at DESC").Order("share_permission.id DESC").
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	out := make([]ShareRecipient, 0, len(perms))
	for _, p := range perms {
		out = append(out, ShareRecipient{
			PermissionID:    p.ID,
			FileID:          p.FileID,
			DisplayName:     p.File.DisplayName,
			RecipientEmail:  p.Recipient.Email,
			RecipientName:   p.Recipient.DisplayName(),
			Kind:            p.Kind,
			Message:         p.Message,
			SharedAt:        p.SharedAt,
			Status:          p.Status,
			StatusChangedAt: p.StatusChangedAt,
		})
	}
	return out, nil
}

// ListSharesSentByUser returns pending and accepted shares of files the user owns.
func ListSharesSentByUser(ctx context.Context, email string) ([]ShareRecipient, error) {
	user, err := FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return listRecipients(ctx, dbWith(ctx).
		Joins("JOIN file_record ON file_record.id = share_permission.file_id").
		Where("file_record.user_id = ?", user.ID))
}

// ListFileRecipients returns who a file is shared with. Owner only.
func ListFileRecipients(ctx context.Context, fileID uint64, ownerEmail string) ([]ShareRecipient, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	var rec model.FileRecord
	if err := dbWith(ctx).Where("id = ?", fileID).First(&rec).Error; err != nil {
		return nil, notFoundOr(err, "file %d", fileID)
	}
	if rec.UserID != owner.ID {
		return nil, kindErr(ErrAccessDenied, "you do not own %s", rec.DisplayName)
	}
	return listRecipients(ctx, dbWith(ctx).Where("share_permission.file_id = ?", fileID))
}
