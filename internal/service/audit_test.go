package service

import (
	"Go_Vault/model"
	"context"
	"fmt"
	"testing"
	"time"
)

func TestAuditCapEvictsOldest(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < AuditRetentionCap+5; i++ {
		freezeAt(base.Add(time.Duration(i) * time.Second))
		LogAction(ctx, ActionFileUpload, "alice@example.com", nil, fmt.Sprintf("entry %d", i))
	}
	LogAction(ctx, ActionFileUpload, "bob@example.com", nil, "bob entry")

	entries, err := ListAuditLog(ctx, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != AuditRetentionCap {
		t.Fatalf("entries = %d, want %d", len(entries), AuditRetentionCap)
	}
	if entries[0].Description != "entry 104" {
		t.Fatalf("newest = %q", entries[0].Description)
	}
	if entries[len(entries)-1].Description != "entry 5" {
		t.Fatalf("oldest kept = %q", entries[len(entries)-1].Description)
	}
	if n := countRows(t, &model.AuditEntry{}, "performed_by = ?", "bob@example.com"); n != 1 {
		t.Fatalf("other actors must be untouched, got %d", n)
	}
}

func TestAuditSurvivesFileAndRecordsName(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	rec := upload(t, alice, "a.txt", "a")

	entries, err := ListAuditLog(ctx, alice.Email)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v, %v", entries, err)
	}
	if entries[0].FileID == nil || *entries[0].FileID != rec.ID || entries[0].FileName != "a.txt" {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestListRecentAuditLog(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	freezeAt(base)
	LogAction(ctx, ActionFileUpload, "alice@example.com", nil, "old")
	freezeAt(base.Add(20 * 24 * time.Hour))
	LogAction(ctx, ActionFileUpload, "alice@example.com", nil, "recent")

	freezeAt(base.Add(25 * 24 * time.Hour))
	entries, err := ListRecentAuditLog(ctx, "alice@example.com", 7)
	if err != nil || len(entries) != 1 || entries[0].Description != "recent" {
		t.Fatalf("7-day window = %+v, %v", entries, err)
	}
	entries, err = ListRecentAuditLog(ctx, "alice@example.com", 0)
	if err != nil || len(entries) != 2 {
		t.Fatalf("default window = %+v, %v", entries, err)
	}
}
