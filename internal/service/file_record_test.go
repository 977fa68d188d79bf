package service

import (
	"Go_Vault/model"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBuildStorageKey(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	first := BuildStorageKey("notes/my  todo.txt", at)
	if !regexp.MustCompile(`^notes/\d{13}-my_todo\.txt$`).MatchString(first) {
		t.Fatalf("key = %q", first)
	}
	second := BuildStorageKey("notes/my  todo.txt", at)
	if first == second {
		t.Fatal("keys issued in the same millisecond must differ")
	}
}

func TestCleanDisplayName(t *testing.T) {
	cases := map[string]string{
		"":                 "unknown-file",
		"  ":               "unknown-file",
		"/a/b.txt":         "a/b.txt",
		"a\\b.txt":         "a/b.txt",
		"../../etc/passwd": "etc/passwd",
		"notes//todo.txt":  "notes/todo.txt",
	}
	for in, want := range cases {
		if got := CleanDisplayName(in); got != want {
			t.Fatalf("CleanDisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadKeepsFolderAndStoresObject(t *testing.T) {
	store := setupTest(t)
	alice := createUser(t, "alice")

	rec := upload(t, alice, "notes/todo.txt", "buy milk")
	if rec.DisplayName != "notes/todo.txt" {
		t.Fatalf("display name = %q", rec.DisplayName)
	}
	if !regexp.MustCompile(`^notes/\d+-todo\.txt$`).MatchString(rec.StorageKey) {
		t.Fatalf("storage key = %q", rec.StorageKey)
	}
	if !store.Has("test-bucket", rec.StorageKey) {
		t.Fatal("object not stored")
	}
	if rec.Size != 8 || rec.ContentType != "text/plain; charset=utf-8" {
		t.Fatalf("size/type = %d %q", rec.Size, rec.ContentType)
	}
	if got := auditEntries(t, alice.Email, ActionFileUpload); len(got) != 1 || got[0].Description != "Uploaded file: notes/todo.txt" {
		t.Fatalf("upload audit = %+v", got)
	}
}

func TestUploadStorageFailureCreatesNoRecord(t *testing.T) {
	store := setupTest(t)
	alice := createUser(t, "alice")
	store.FailOn = func(op, object string) error {
		if op == "put" {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := UploadFile(context.Background(), alice.Email, "a.txt", strings.NewReader("x"), 1, "")
	assertKind(t, err, ErrStorage)
	if n := countRows(t, &model.FileRecord{}, "user_id = ?", alice.ID); n != 0 {
		t.Fatalf("records after failed upload = %d", n)
	}
}

func TestUploadUnknownOwner(t *testing.T) {
	setupTest(t)
	_, err := UploadFile(context.Background(), "ghost@example.com", "a.txt", strings.NewReader("x"), 1, "")
	assertKind(t, err, ErrNotFound)
}

func TestTrashLifecycle(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	rec := upload(t, alice, "a.txt", "hello")

	_, err := RestoreFile(ctx, alice.Email, rec.StorageKey)
	assertKind(t, err, ErrInvalidState)
	assertKind(t, PermanentlyDeleteFile(ctx, alice.Email, rec.StorageKey), ErrInvalidState)

	_, err = SoftDeleteFile(ctx, bob.Email, rec.StorageKey)
	assertKind(t, err, ErrAccessDenied)

	trashed, err := SoftDeleteFile(ctx, alice.Email, rec.StorageKey)
	if err != nil || trashed.DeletedAt == nil {
		t.Fatalf("soft delete = %+v, %v", trashed, err)
	}
	if !store.Has("test-bucket", rec.StorageKey) {
		t.Fatal("soft delete must keep the object")
	}
	_, err = SoftDeleteFile(ctx, alice.Email, rec.StorageKey)
	assertKind(t, err, ErrInvalidState)

	trash, err := ListTrash(ctx, alice.Email)
	if err != nil || len(trash) != 1 {
		t.Fatalf("trash = %+v, %v", trash, err)
	}

	restored, err := RestoreFile(ctx, alice.Email, rec.StorageKey)
	if err != nil || restored.DeletedAt != nil {
		t.Fatalf("restore = %+v, %v", restored, err)
	}

	if _, err := SoftDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatal(err)
	}
	if err := PermanentlyDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatalf("permanent delete: %v", err)
	}
	if store.Has("test-bucket", rec.StorageKey) {
		t.Fatal("object should be purged")
	}
	if n := countRows(t, &model.FileRecord{}, "id = ?", rec.ID); n != 0 {
		t.Fatal("record should be removed")
	}
	for _, action := range []string{ActionFileSoftDelete, ActionFileRestore, ActionFilePermanentDelete} {
		if len(auditEntries(t, alice.Email, action)) == 0 {
			t.Fatalf("missing %s audit entry", action)
		}
	}
}

func TestPermanentDeleteStorageFailureKeepsMetadata(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	rec := upload(t, alice, "a.txt", "hello")
	if _, err := SoftDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatal(err)
	}

	store.FailOn = func(op, object string) error {
		if op == "remove" {
			return errors.New("unreachable")
		}
		return nil
	}
	assertKind(t, PermanentlyDeleteFile(ctx, alice.Email, rec.StorageKey), ErrStorage)
	if n := countRows(t, &model.FileRecord{}, "id = ?", rec.ID); n != 1 {
		t.Fatal("metadata must survive a failed object removal")
	}
}

func TestPermanentDeleteCascades(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	rec := upload(t, alice, "a.txt", "hello")
	if _, _, err := ShareFile(ctx, ShareRequest{FileID: rec.ID, RecipientEmail: bob.Email}, alice.Email); err != nil {
		t.Fatal(err)
	}
	if _, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "http://localhost"); err != nil {
		t.Fatal(err)
	}
	if _, err := SoftDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatal(err)
	}
	if err := PermanentlyDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, &model.SharePermission{}, "file_id = ?", rec.ID); n != 0 {
		t.Fatalf("permissions left = %d", n)
	}
	if n := countRows(t, &model.PublicAccessToken{}, "file_id = ?", rec.ID); n != 0 {
		t.Fatalf("tokens left = %d", n)
	}
	if len(auditEntries(t, alice.Email, ActionShareFile)) != 1 {
		t.Fatal("audit history must survive file deletion")
	}
}

func TestRenameFile(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	rec := upload(t, alice, "a.txt", "hello")
	oldKey := rec.StorageKey

	renamed, err := RenameFile(ctx, alice.Email, oldKey, "docs/b.txt")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.DisplayName != "docs/b.txt" || !strings.HasPrefix(renamed.StorageKey, "docs/") {
		t.Fatalf("renamed = %+v", renamed)
	}
	if store.Has("test-bucket", oldKey) || !store.Has("test-bucket", renamed.StorageKey) {
		t.Fatal("object should move to the new key")
	}
	got := auditEntries(t, alice.Email, ActionFileRename)
	if len(got) != 1 || got[0].Description != "Renamed file from 'a.txt' to 'docs/b.txt'" {
		t.Fatalf("rename audit = %+v", got)
	}

	_, err = RenameFile(ctx, bob.Email, renamed.StorageKey, "stolen.txt")
	assertKind(t, err, ErrAccessDenied)

	perm, _, err := ShareFile(ctx, ShareRequest{FileID: rec.ID, RecipientEmail: bob.Email, Kind: model.PermissionEdit}, alice.Email)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := AcceptShare(ctx, perm.ID, bob.Email); err != nil {
		t.Fatal(err)
	}
	if _, err := RenameFile(ctx, bob.Email, renamed.StorageKey, "docs/c.txt"); err != nil {
		t.Fatalf("edit recipient rename: %v", err)
	}
}

func TestRenameFolderReportsPartialFailure(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	good := upload(t, alice, "photos/a.jpg", "a")
	bad := upload(t, alice, "photos/b.jpg", "b")
	other := upload(t, alice, "photos-old/c.jpg", "c")

	store.FailOn = func(op, object string) error {
		if op == "copy" && object == bad.StorageKey {
			return errors.New("copy failed")
		}
		return nil
	}
	result, err := RenameFolder(ctx, alice.Email, "photos", "pictures/")
	if err != nil {
		t.Fatalf("rename folder: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 || !result.Partial() {
		t.Fatalf("result = %+v", result)
	}

	var moved model.FileRecord
	if err := dbWith(ctx).First(&moved, good.ID).Error; err != nil {
		t.Fatal(err)
	}
	if moved.DisplayName != "pictures/a.jpg" {
		t.Fatalf("moved name = %q", moved.DisplayName)
	}
	var failed model.FileRecord
	if err := dbWith(ctx).First(&failed, bad.ID).Error; err != nil {
		t.Fatal(err)
	}
	if failed.DisplayName != "photos/b.jpg" || failed.StorageKey != bad.StorageKey {
		t.Fatalf("failed item changed: %+v", failed)
	}
	var untouched model.FileRecord
	if err := dbWith(ctx).First(&untouched, other.ID).Error; err != nil {
		t.Fatal(err)
	}
	if untouched.DisplayName != "photos-old/c.jpg" {
		t.Fatal("prefix match must be folder-aware")
	}
	if got := auditEntries(t, alice.Email, ActionFileMove); len(got) != 1 {
		t.Fatalf("move audit entries = %d", len(got))
	}

	_, err = RenameFolder(ctx, alice.Email, "nope", "x")
	assertKind(t, err, ErrNotFound)
}

func TestDeleteFolder(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	a := upload(t, alice, "tmp/a.txt", "a")
	b := upload(t, alice, "tmp/sub/b.txt", "b")
	keep := upload(t, alice, "keep.txt", "k")

	result, err := DeleteFolder(ctx, alice.Email, "tmp")
	if err != nil {
		t.Fatal(err)
	}
	if result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	for _, rec := range []*model.FileRecord{a, b} {
		if store.Has("test-bucket", rec.StorageKey) {
			t.Fatalf("%s still stored", rec.StorageKey)
		}
	}
	if !store.Has("test-bucket", keep.StorageKey) {
		t.Fatal("file outside the folder was deleted")
	}
	if got := auditEntries(t, alice.Email, ActionFileDelete); len(got) != 2 {
		t.Fatalf("delete audit entries = %d", len(got))
	}
}

func TestListFilesSkipsTrashedAndOrphans(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	visible := upload(t, alice, "a.txt", "aaa")
	trashed := upload(t, alice, "b.txt", "b")
	orphan := upload(t, alice, "c.txt", "c")
	if _, err := SoftDeleteFile(ctx, alice.Email, trashed.StorageKey); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveObject(ctx, "test-bucket", orphan.StorageKey); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(ctx, alice.Email, FileQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ID != visible.ID || files[0].Size != 3 {
		t.Fatalf("files = %+v", files)
	}
}

func TestListFilesStatsOnlyOwnerObjects(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	mine := upload(t, alice, "docs/a.txt", "a")
	theirs := upload(t, bob, "docs/b.txt", "b")

	var mu sync.Mutex
	var statted []string
	store.FailOn = func(op, object string) error {
		if op != "stat" {
			return nil
		}
		mu.Lock()
		statted = append(statted, object)
		mu.Unlock()
		if object == theirs.StorageKey {
			return errors.New("unreachable object")
		}
		return nil
	}

	files, err := ListFiles(ctx, alice.Email, FileQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ID != mine.ID {
		t.Fatalf("files = %+v", files)
	}
	if len(statted) != 1 || statted[0] != mine.StorageKey {
		t.Fatalf("statted = %v", statted)
	}

	_, err = ListFiles(ctx, bob.Email, FileQuery{})
	assertKind(t, err, ErrStorage)
}

func TestOpenFileAccess(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	rec := upload(t, alice, "a.txt", "secret")

	_, body, _, err := OpenFile(ctx, alice.Email, rec.StorageKey)
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, body); got != "secret" {
		t.Fatalf("body = %q", got)
	}

	_, _, _, err = OpenFile(ctx, bob.Email, rec.StorageKey)
	assertKind(t, err, ErrAccessDenied)

	perm, _, err := ShareFile(ctx, ShareRequest{FileID: rec.ID, RecipientEmail: bob.Email}, alice.Email)
	if err != nil {
		t.Fatal(err)
	}
	_, _, _, err = OpenFile(ctx, bob.Email, rec.StorageKey)
	assertKind(t, err, ErrAccessDenied)
	if _, err := AcceptShare(ctx, perm.ID, bob.Email); err != nil {
		t.Fatal(err)
	}
	_, body, _, err = OpenFile(ctx, bob.Email, rec.StorageKey)
	if err != nil {
		t.Fatalf("accepted recipient open: %v", err)
	}
	body.Close()

	if _, err := SoftDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatal(err)
	}
	_, _, _, err = OpenFile(ctx, alice.Email, rec.StorageKey)
	assertKind(t, err, ErrNotFound)
}

func TestListFilesQuery(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	upload(t, alice, "b_report.txt", "bbbb")
	upload(t, alice, "a_report.txt", "a")
	upload(t, alice, "photo.png", "pp")
	upload(t, alice, "100%.txt", "x")

	files, err := ListFiles(ctx, alice.Email, FileQuery{Query: "report", OrderBy: "size", OrderDesc: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].DisplayName != "b_report.txt" || files[1].DisplayName != "a_report.txt" {
		t.Fatalf("files = %+v", files)
	}

	files, err = ListFiles(ctx, alice.Email, FileQuery{Query: "%"})
	if err != nil || len(files) != 1 || files[0].DisplayName != "100%.txt" {
		t.Fatalf("literal percent = %+v, %v", files, err)
	}

	files, err = ListFiles(ctx, alice.Email, FileQuery{OrderBy: "name; DROP TABLE file_record"})
	if err != nil || len(files) != 4 || files[0].DisplayName != "100%.txt" {
		t.Fatalf("fallback order = %+v, %v", files, err)
	}
}

func TestFolderArchive(t *testing.T) {
	store := setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	upload(t, alice, "trip/day1.txt", "one")
	gone := upload(t, alice, "trip/sub/day2.txt", "two")
	upload(t, alice, "other.txt", "x")
	if err := store.RemoveObject(ctx, "test-bucket", gone.StorageKey); err != nil {
		t.Fatal(err)
	}

	entries, name, err := BuildFolderArchive(ctx, alice.Email, "trip")
	if err != nil {
		t.Fatal(err)
	}
	if name != "trip.zip" || len(entries) != 2 {
		t.Fatalf("name = %q entries = %+v", name, entries)
	}

	var buf bytes.Buffer
	if err := WriteArchive(ctx, &buf, entries); err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "day1.txt" {
		t.Fatalf("zip entries = %+v", zr.File)
	}

	_, _, err = BuildFolderArchive(ctx, alice.Email, "missing")
	assertKind(t, err, ErrNotFound)
}
