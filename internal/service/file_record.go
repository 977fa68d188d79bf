package service

import (
	"Go_Vault/internal/storage"
	"Go_Vault/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	unknownFileName     = "unknown-file"
	listStatConcurrency = 8
)

// FileEntry is an active file joined with its object-store metadata.
type FileEntry struct {
	ID           uint64    `json:"id"`
	StorageKey   string    `json:"storage_key"`
	DisplayName  string    `json:"display_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
	LastModified time.Time `json:"last_modified"`
}

// FolderItemResult is the outcome for one file of a folder operation.
type FolderItemResult struct {
	StorageKey  string `json:"storage_key"`
	DisplayName string `json:"display_name"`
	NewKey      string `json:"new_key,omitempty"`
	NewName     string `json:"new_name,omitempty"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

// FolderResult collects per-file outcomes; folder operations are not atomic.
type FolderResult struct {
	Items     []FolderItemResult `json:"items"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// Partial reports whether at least one item failed.
func (r *FolderResult) Partial() bool {
	return r.Failed > 0
}

func (r *FolderResult) add(item FolderItemResult) {
	if item.OK {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

var lastKeyStamp atomic.Int64

// nextKeyStamp returns a millisecond stamp strictly greater than any previously issued one.
func nextKeyStamp(t time.Time) int64 {
	for {
		last := lastKeyStamp.Load()
		stamp := t.UnixMilli()
		if stamp <= last {
			stamp = last + 1
		}
		if lastKeyStamp.CompareAndSwap(last, stamp) {
			return stamp
		}
	}
}

// CleanDisplayName normalises a user-supplied path-like name.
func CleanDisplayName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	cleaned := strings.TrimPrefix(path.Clean("/"+name), "/")
	if cleaned == "" {
		return unknownFileName
	}
	return cleaned
}

// BuildStorageKey keeps the folder prefix and stamps the base name: "notes/1700000000000-to_do.txt".
func BuildStorageKey(displayName string, t time.Time) string {
	dir, base := path.Split(displayName)
	base = strings.Join(strings.Fields(base), "_")
	if base == "" {
		base = unknownFileName
	}
	return dir + strconv.FormatInt(nextKeyStamp(t), 10) + "-" + base
}

// folderPrefix turns "a/b" or "a/b/" into "a/b/".
func folderPrefix(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "", kindErr(ErrValidation, "folder path is required")
	}
	return cleaned + "/", nil
}

func lockFileByKey(tx *gorm.DB, key string) (*model.FileRecord, error) {
	var rec model.FileRecord
	if err := forUpdate(tx).Where("storage_key = ?", key).First(&rec).Error; err != nil {
		return nil, notFoundOr(err, "file %s", key)
	}
	return &rec, nil
}

func lockFileByID(tx *gorm.DB, id uint64) (*model.FileRecord, error) {
	var rec model.FileRecord
	if err := forUpdate(tx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFoundOr(err, "file %d", id)
	}
	return &rec, nil
}

// UploadFile stores the bytes, then records the metadata.
func UploadFile(ctx context.Context, ownerEmail, originalName string, content io.Reader, size int64, contentType string) (*model.FileRecord, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	displayName := CleanDisplayName(originalName)
	key := BuildStorageKey(displayName, now())
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentTypeFor(displayName)
	}

	sctx, cancel := storageCtx(ctx)
	err = storage.Default.PutObject(sctx, bucket(), key, content, size, storage.PutOptions{ContentType: contentType})
	if err == nil && size < 0 {
		var info storage.ObjectInfo
		if info, err = storage.Default.StatObject(sctx, bucket(), key); err == nil {
			size = info.Size
		}
	}
	cancel()
	if err != nil {
		return nil, kindErr(ErrStorage, "upload %s: %v", displayName, err)
	}

	rec := &model.FileRecord{
		StorageKey:  key,
		DisplayName: displayName,
		UserID:      owner.ID,
		Size:        size,
		ContentType: contentType,
		UploadedAt:  now(),
	}
	if err := dbWith(ctx).Create(rec).Error; err != nil {
		rctx, rcancel := storageCtx(context.WithoutCancel(ctx))
		if rmErr := storage.Default.RemoveObject(rctx, bucket(), key); rmErr != nil {
			log.Printf("file registry: cleanup object %s after failed insert: %v", key, rmErr)
		}
		rcancel()
		if isDuplicateKey(err) {
			return nil, kindErr(ErrConflict, "storage key %s already exists", key)
		}
		return nil, err
	}
	LogAction(ctx, ActionFileUpload, owner.Email, rec, "Uploaded file: "+displayName)
	return rec, nil
}

// SoftDeleteFile moves an owned file to the trash. The object bytes stay in place.
func SoftDeleteFile(ctx context.Context, actorEmail, key string) (*model.FileRecord, error) {
	actor, err := FindUserByEmail(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	var rec *model.FileRecord
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByKey(tx, key); err != nil {
			return err
		}
		if rec.UserID != actor.ID {
			return kindErr(ErrAccessDenied, "only the owner can delete %s", rec.DisplayName)
		}
		if rec.IsTrashed() {
			return kindErr(ErrInvalidState, "file is already in trash")
		}
		deletedAt := now()
		if err := tx.Model(rec).Update("deleted_at", deletedAt).Error; err != nil {
			return err
		}
		rec.DeletedAt = &deletedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	LogAction(ctx, ActionFileSoftDelete, actor.Email, rec, "Soft-deleted file: "+rec.DisplayName)
	return rec, nil
}

// RestoreFile takes an owned file out of the trash.
func RestoreFile(ctx context.Context, actorEmail, key string) (*model.FileRecord, error) {
	actor, err := FindUserByEmail(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	var rec *model.FileRecord
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByKey(tx, key); err != nil {
			return err
		}
		if rec.UserID != actor.ID {
			return kindErr(ErrAccessDenied, "only the owner can restore %s", rec.DisplayName)
		}
		if !rec.IsTrashed() {
			return kindErr(ErrInvalidState, "file is not in trash")
		}
		if err := tx.Model(rec).Update("deleted_at", nil).Error; err != nil {
			return err
		}
		rec.DeletedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	LogAction(ctx, ActionFileRestore, actor.Email, rec, "Restored file: "+rec.DisplayName)
	return rec, nil
}

// PermanentlyDeleteFile purges a trashed file's object and metadata.
func PermanentlyDeleteFile(ctx context.Context, actorEmail, key string) error {
	actor, err := FindUserByEmail(ctx, actorEmail)
	if err != nil {
		return err
	}
	rec, err := purgeFile(ctx, key, actor.ID, true)
	if err != nil {
		return err
	}
	LogAction(ctx, ActionFilePermanentDelete, actor.Email, rec, "Permanently deleted file: "+rec.DisplayName)
	return nil
}

// purgeFile removes the object first and then the rows that depend on the file.
// actorID 0 skips the owner check. The returned record has User loaded.
func purgeFile(ctx context.Context, key string, actorID uint64, requireTrashed bool) (*model.FileRecord, error) {
	var rec *model.FileRecord
	err := dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByKey(tx, key); err != nil {
			return err
		}
		if actorID != 0 && rec.UserID != actorID {
			return kindErr(ErrAccessDenied, "only the owner can delete %s", rec.DisplayName)
		}
		if requireTrashed && !rec.IsTrashed() {
			return kindErr(ErrInvalidState, "file must be in trash before permanent deletion")
		}
		if err := tx.Where("id = ?", rec.UserID).First(&rec.User).Error; err != nil {
			return err
		}

		sctx, cancel := storageCtx(ctx)
		defer cancel()
		if err := storage.Default.RemoveObject(sctx, bucket(), rec.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return kindErr(ErrStorage, "remove %s: %v", rec.StorageKey, err)
		}
		return deleteFileRows(tx, rec.ID)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// deleteFileRows cascades a file deletion to its permissions and tokens.
func deleteFileRows(tx *gorm.DB, fileID uint64) error {
	if err := tx.Where("file_id = ?", fileID).Delete(&model.PublicAccessToken{}).Error; err != nil {
		return err
	}
	if err := tx.Where("file_id = ?", fileID).Delete(&model.SharePermission{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", fileID).Delete(&model.FileRecord{}).Error
}

// canEdit reports whether user may modify the file: the owner or an accepted EDIT recipient.
func canEdit(tx *gorm.DB, rec *model.FileRecord, userID uint64) (bool, error) {
	if rec.UserID == userID {
		return true, nil
	}
	var count int64
	err := tx.Model(&model.SharePermission{}).
		Where("file_id = ? AND recipient_id = ? AND status = ? AND kind = ?",
			rec.ID, userID, model.ShareAccepted, model.PermissionEdit).
		Count(&count).Error
	return count > 0, err
}

// canRead reports whether user may read the file: the owner or any accepted recipient.
func canRead(tx *gorm.DB, rec *model.FileRecord, userID uint64) (bool, error) {
	if rec.UserID == userID {
		return true, nil
	}
	var count int64
	err := tx.Model(&model.SharePermission{}).
		Where("file_id = ? AND recipient_id = ? AND status = ?", rec.ID, userID, model.ShareAccepted).
		Count(&count).Error
	return count > 0, err
}

// relocate copies the object to a fresh key derived from newName and repoints the row.
// The old object is removed after commit; a failure there only leaves an orphan.
func relocate(ctx context.Context, key, newName string, authorize func(tx *gorm.DB, rec *model.FileRecord) error) (*model.FileRecord, string, error) {
	var rec *model.FileRecord
	var oldKey, oldName string
	err := dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockFileByKey(tx, key); err != nil {
			return err
		}
		if err := authorize(tx, rec); err != nil {
			return err
		}
		if rec.IsTrashed() {
			return kindErr(ErrInvalidState, "cannot rename a file in trash")
		}
		oldKey, oldName = rec.StorageKey, rec.DisplayName
		newKey := BuildStorageKey(newName, now())

		sctx, cancel := storageCtx(ctx)
		defer cancel()
		if err := storage.Default.CopyObject(sctx,
			storage.CopyDest{Bucket: bucket(), Object: newKey},
			storage.CopySource{Bucket: bucket(), Object: oldKey},
		); err != nil {
			return kindErr(ErrStorage, "copy %s: %v", oldKey, err)
		}
		if err := tx.Model(rec).Updates(map[string]interface{}{
			"storage_key":  newKey,
			"display_name": newName,
		}).Error; err != nil {
			if rmErr := storage.Default.RemoveObject(sctx, bucket(), newKey); rmErr != nil {
				log.Printf("file registry: cleanup copy %s: %v", newKey, rmErr)
			}
			return err
		}
		rec.StorageKey, rec.DisplayName = newKey, newName
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	rctx, cancel := storageCtx(context.WithoutCancel(ctx))
	defer cancel()
	if err := storage.Default.RemoveObject(rctx, bucket(), oldKey); err != nil {
		log.Printf("file registry: remove old object %s: %v", oldKey, err)
	}
	return rec, oldName, nil
}

// RenameFile renames a file. Owners and accepted EDIT recipients may rename.
func RenameFile(ctx context.Context, actorEmail, key, newName string) (*model.FileRecord, error) {
	actor, err := FindUserByEmail(ctx, actorEmail)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(newName) == "" {
		return nil, kindErr(ErrValidation, "new name is required")
	}
	newName = CleanDisplayName(newName)
	rec, oldName, err := relocate(ctx, key, newName, func(tx *gorm.DB, rec *model.FileRecord) error {
		ok, err := canEdit(tx, rec, actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			return kindErr(ErrAccessDenied, "no edit permission on %s", rec.DisplayName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	LogAction(ctx, ActionFileRename, actor.Email, rec, fmt.Sprintf("Renamed file from '%s' to '%s'", oldName, newName))
	return rec, nil
}

// filesInFolder lists the owner's records whose display name starts with prefix.
func filesInFolder(ctx context.Context, ownerID uint64, prefix string, includeTrashed bool) ([]model.FileRecord, error) {
	query := dbWith(ctx).Where("user_id = ?", ownerID)
	if !includeTrashed {
		query = query.Where("deleted_at IS NULL")
	}
	var all []model.FileRecord
	if err := query.Order("display_name ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	out := make([]model.FileRecord, 0, len(all))
	for _, rec := range all {
		if strings.HasPrefix(rec.DisplayName, prefix) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// RenameFolder moves every active file under oldPath to newPath, one file at a time.
func RenameFolder(ctx context.Context, ownerEmail, oldPath, newPath string) (*FolderResult, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	oldPrefix, err := folderPrefix(oldPath)
	if err != nil {
		return nil, err
	}
	newPrefix, err := folderPrefix(newPath)
	if err != nil {
		return nil, err
	}
	if oldPrefix == newPrefix {
		return nil, kindErr(ErrValidation, "folder already named %s", newPrefix)
	}
	files, err := filesInFolder(ctx, owner.ID, oldPrefix, false)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, kindErr(ErrNotFound, "folder %s", oldPrefix)
	}

	result := &FolderResult{}
	ownerOnly := func(tx *gorm.DB, rec *model.FileRecord) error {
		if rec.UserID != owner.ID {
			return kindErr(ErrAccessDenied, "only the owner can move %s", rec.DisplayName)
		}
		return nil
	}
	for _, f := range files {
		newName := newPrefix + strings.TrimPrefix(f.DisplayName, oldPrefix)
		item := FolderItemResult{StorageKey: f.StorageKey, DisplayName: f.DisplayName, NewName: newName}
		rec, _, err := relocate(ctx, f.StorageKey, newName, ownerOnly)
		if err != nil {
			log.Printf("file registry: move %s failed: %v", f.StorageKey, err)
			item.Error = err.Error()
			result.add(item)
			continue
		}
		item.OK = true
		item.NewKey = rec.StorageKey
		result.add(item)
		LogAction(ctx, ActionFileMove, owner.Email, rec, fmt.Sprintf("Moved file from '%s' to '%s'", f.DisplayName, newName))
	}
	return result, nil
}

// DeleteFolder permanently deletes every file under folderPath, trashed or not.
func DeleteFolder(ctx context.Context, ownerEmail, folderPath string) (*FolderResult, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	prefix, err := folderPrefix(folderPath)
	if err != nil {
		return nil, err
	}
	files, err := filesInFolder(ctx, owner.ID, prefix, true)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, kindErr(ErrNotFound, "folder %s", prefix)
	}

	result := &FolderResult{}
	for _, f := range files {
		item := FolderItemResult{StorageKey: f.StorageKey, DisplayName: f.DisplayName}
		rec, err := purgeFile(ctx, f.StorageKey, owner.ID, false)
		if err != nil {
			log.Printf("file registry: delete %s failed: %v", f.StorageKey, err)
			item.Error = err.Error()
			result.add(item)
			continue
		}
		item.OK = true
		result.add(item)
		LogAction(ctx, ActionFileDelete, owner.Email, rec, "Deleted file as part of folder removal: "+rec.StorageKey)
	}
	return result, nil
}

// ListFiles returns the owner's active files that still have a backing object.
func ListFiles(ctx context.Context, ownerEmail string, q FileQuery) ([]FileEntry, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	var records []model.FileRecord
	if err := q.apply(dbWith(ctx).Where("user_id = ? AND deleted_at IS NULL", owner.ID)).
		Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []FileEntry{}, nil
	}

	infos := make([]*storage.ObjectInfo, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listStatConcurrency)
	for i := range records {
		g.Go(func() error {
			sctx, cancel := storageCtx(gctx)
			defer cancel()
			info, err := storage.Default.StatObject(sctx, bucket(), records[i].StorageKey)
			if errors.Is(err, storage.ErrObjectNotFound) {
				return nil
			}
			if err != nil {
				return kindErr(ErrStorage, "stat %s: %v", records[i].StorageKey, err)
			}
			infos[i] = &info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FileEntry, 0, len(records))
	for i, rec := range records {
		obj := infos[i]
		if obj == nil {
			continue
		}
		contentType := obj.ContentType
		if contentType == "" {
			contentType = rec.ContentType
		}
		out = append(out, FileEntry{
			ID:           rec.ID,
			StorageKey:   rec.StorageKey,
			DisplayName:  rec.DisplayName,
			Size:         obj.Size,
			ContentType:  contentType,
			UploadedAt:   rec.UploadedAt,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

// ListTrash returns the owner's soft-deleted files, most recently deleted first.
func ListTrash(ctx context.Context, ownerEmail string) ([]model.FileRecord, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	var records []model.FileRecord
	err = dbWith(ctx).
		Where("user_id = ? AND deleted_at IS NOT NULL", owner.ID).
		Order("deleted_at DESC").Order("id DESC").
		Find(&records).Error
	return records, err
}

// OpenFile streams a file to its owner or an accepted recipient. The caller closes the body.
func OpenFile(ctx context.Context, actorEmail, key string) (*model.FileRecord, io.ReadCloser, storage.ObjectInfo, error) {
	actor, err := FindUserByEmail(ctx, actorEmail)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, err
	}
	var rec model.FileRecord
	if err := dbWith(ctx).Where("storage_key = ? AND deleted_at IS NULL", key).First(&rec).Error; err != nil {
		return nil, nil, storage.ObjectInfo{}, notFoundOr(err, "file %s", key)
	}
	ok, err := canRead(dbWith(ctx), &rec, actor.ID)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, err
	}
	if !ok {
		return nil, nil, storage.ObjectInfo{}, kindErr(ErrAccessDenied, "no access to %s", rec.DisplayName)
	}
	body, info, err := openObject(ctx, rec.StorageKey)
	if err != nil {
		return nil, nil, storage.ObjectInfo{}, err
	}
	return &rec, body, info, nil
}

// openObject is not bounded by the storage timeout: the body is streamed to the client.
func openObject(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	sctx, cancel := context.WithCancel(ctx)
	body, info, err := storage.Default.GetObject(sctx, bucket(), key)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, kindErr(ErrNotFound, "object %s", key)
		}
		return nil, storage.ObjectInfo{}, kindErr(ErrStorage, "get %s: %v", key, err)
	}
	return cancelOnClose{ReadCloser: body, cancel: cancel}, info, nil
}
