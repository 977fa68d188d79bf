package service

import (
	"Go_Vault/config"
	"Go_Vault/internal/repo"
	"Go_Vault/internal/storage"
	"Go_Vault/model"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupTest points the package at a fresh SQLite database and an in-memory object store.
func setupTest(t *testing.T) *storage.MemoryStore {
	t.Helper()
	db, err := repo.OpenSqlite(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := storage.NewMemoryStore()

	repo.Db = db
	repo.Redis = nil
	storage.Default = store
	config.AppConfig = config.Config{BucketName: "test-bucket"}
	nowFunc = time.Now

	t.Cleanup(func() {
		nowFunc = time.Now
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store
}

// createUser inserts an account directly; bcrypt is exercised in the identity tests.
func createUser(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{UserName: name, Email: name + "@example.com", Password: "x", IsActive: true}
	if err := repo.Db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func upload(t *testing.T, owner *model.User, name, content string) *model.FileRecord {
	t.Helper()
	rec, err := UploadFile(context.Background(), owner.Email, name, strings.NewReader(content), int64(len(content)), "")
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return rec
}

// freezeAt makes now() return a fixed instant until the test ends.
func freezeAt(t time.Time) {
	nowFunc = func() time.Time { return t }
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func assertKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want %v", err, kind)
	}
}

func auditEntries(t *testing.T, actor, action string) []model.AuditEntry {
	t.Helper()
	var entries []model.AuditEntry
	if err := repo.Db.Where("performed_by = ? AND action = ?", actor, action).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	return entries
}

func countRows(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := repo.Db.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
