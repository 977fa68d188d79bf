package service

import (
	"Go_Vault/model"
	"archive/zip"
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ArchiveEntry is one file of a folder archive.
type ArchiveEntry struct {
	ZipPath string
	File    model.FileRecord
}

func sanitizeArchiveName(name string) string {
	clean := strings.TrimSpace(name)
	clean = strings.ReplaceAll(clean, "\\", "/")
	clean = strings.ReplaceAll(clean, "..", "_")
	clean = strings.Trim(path.Clean("/"+clean), "/")
	if clean == "" || clean == "." {
		return "unnamed"
	}
	return clean
}

// BuildFolderArchive collects the owner's active files under folderPath, keyed by their path inside the folder.
func BuildFolderArchive(ctx context.Context, ownerEmail, folderPath string) ([]ArchiveEntry, string, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, "", err
	}
	prefix, err := folderPrefix(folderPath)
	if err != nil {
		return nil, "", err
	}
	files, err := filesInFolder(ctx, owner.ID, prefix, false)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", kindErr(ErrNotFound, "folder %s", prefix)
	}
	entries := make([]ArchiveEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, ArchiveEntry{
			ZipPath: sanitizeArchiveName(strings.TrimPrefix(f.DisplayName, prefix)),
			File:    f,
		})
	}
	return entries, path.Base(strings.TrimSuffix(prefix, "/")) + ".zip", nil
}

// WriteArchive streams entries into a zip. Objects missing from the store are skipped.
func WriteArchive(ctx context.Context, w io.Writer, entries []ArchiveEntry) error {
	zw := zip.NewWriter(w)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, _, err := openObject(ctx, entry.File.StorageKey)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		header := &zip.FileHeader{Name: entry.ZipPath, Method: zip.Deflate, Modified: entry.File.UploadedAt}
		dst, err := zw.CreateHeader(header)
		if err == nil {
			_, err = io.Copy(dst, body)
		}
		body.Close()
		if err != nil {
			return kindErr(ErrStorage, "archive %s: %v", entry.File.StorageKey, err)
		}
	}
	return zw.Close()
}
