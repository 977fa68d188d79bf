package repo

import (
	"Go_Vault/model"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// setupMysql starts a MySQL container and returns a migrated connection.
func setupMysql(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := mysql.Run(ctx,
		"mysql:8.0.36",
		mysql.WithDatabase("vault_test"),
		mysql.WithUsername("vault"),
		mysql.WithPassword("vault"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "charset=utf8mb4", "parseTime=True", "loc=Local")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := OpenMysql(dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	return db
}

func TestMysqlSharePermissionUniqueness(t *testing.T) {
	db := setupMysql(t)

	owner := model.User{UserName: "owner", Email: "owner@example.com", Password: "x"}
	recipient := model.User{UserName: "recipient", Email: "recipient@example.com", Password: "x"}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&recipient).Error; err != nil {
		t.Fatal(err)
	}
	file := model.FileRecord{StorageKey: "1-a.txt", DisplayName: "a.txt", UserID: owner.ID, UploadedAt: time.Now()}
	if err := db.Create(&file).Error; err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	first := model.SharePermission{FileID: file.ID, RecipientID: recipient.ID, Kind: model.PermissionView,
		Status: model.SharePending, SharedAt: now, StatusChangedAt: now}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	dup := first
	dup.ID = 0
	err := db.Create(&dup).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate insert err = %v, want ErrDuplicatedKey", err)
	}

	if err := db.Delete(&file).Error; err != nil {
		t.Fatalf("delete file: %v", err)
	}
	var count int64
	db.Model(&model.SharePermission{}).Where("file_id = ?", file.ID).Count(&count)
	if count != 0 {
		t.Fatalf("permissions after cascade = %d", count)
	}
}
