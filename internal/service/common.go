package service

import (
	"Go_Vault/config"
	"Go_Vault/internal/repo"
	"context"
	"io"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var nowFunc = time.Now

// now returns the current time in UTC at millisecond precision, matching datetime(3) columns.
func now() time.Time {
	return nowFunc().UTC().Truncate(time.Millisecond)
}

func bucket() string {
	return config.AppConfig.BucketName
}

func dbWith(ctx context.Context) *gorm.DB {
	return repo.Db.WithContext(ctx)
}

// forUpdate adds SELECT ... FOR UPDATE on dialects that support row locks.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// storageCtx bounds a single object-store call.
func storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := config.AppConfig.StorageTimeout; timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// cancelOnClose releases a storage context once the body has been consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r cancelOnClose) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}
