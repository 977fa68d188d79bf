package service

import (
	"Go_Vault/model"
	"context"
	"strings"
	"testing"
	"time"
)

func TestPublicLinkURLs(t *testing.T) {
	preview, download := PublicLinkURLs("https://vault.example.com/", "abc")
	if download != "https://vault.example.com/api/share/public/access/abc" {
		t.Fatalf("download = %q", download)
	}
	if preview != download+"?preview=true" {
		t.Fatalf("preview = %q", preview)
	}
}

func TestPublicLinkLifecycle(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	rec := upload(t, alice, "photo.png", "png-bytes")

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	freezeAt(base)
	link, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "http://localhost:8000")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(link.Token) != 32 || !link.ExpiresAt.Equal(base.Add(24*time.Hour)) {
		t.Fatalf("link = %+v", link)
	}
	if !strings.HasSuffix(link.DownloadURL, link.Token) {
		t.Fatalf("download url = %q", link.DownloadURL)
	}

	_, err = GeneratePublicLink(ctx, rec.ID, bob.Email, "http://localhost:8000")
	assertKind(t, err, ErrAccessDenied)

	freezeAt(base.Add(23 * time.Hour))
	pf, err := ResolvePublicLink(ctx, link.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := readAll(t, pf.Body); got != "png-bytes" {
		t.Fatalf("body = %q", got)
	}
	if pf.MediaType != "image/png" || pf.File.ID != rec.ID {
		t.Fatalf("public file = %+v", pf)
	}
	if len(auditEntries(t, AnonymousActor, ActionPublicFileAccess)) != 1 {
		t.Fatal("public access must be audited as anonymous")
	}

	freezeAt(base.Add(24 * time.Hour))
	_, err = ResolvePublicLink(ctx, link.Token)
	assertKind(t, err, ErrExpired)

	var tok model.PublicAccessToken
	if err := dbWith(ctx).Where("token = ?", link.Token).First(&tok).Error; err != nil {
		t.Fatal(err)
	}
	if tok.Active {
		t.Fatal("expired token must be deactivated")
	}
	_, err = ResolvePublicLink(ctx, link.Token)
	assertKind(t, err, ErrExpired)

	freezeAt(base.Add(48 * time.Hour))
	_, err = ResolvePublicLink(ctx, link.Token)
	assertKind(t, err, ErrExpired)
	if got := len(auditEntries(t, AnonymousActor, ActionPublicFileAccess)); got != 1 {
		t.Fatalf("expired access must not be audited, got %d entries", got)
	}
}

func TestPublicLinkRevoke(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	rec := upload(t, alice, "a.txt", "a")

	link, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "")
	if err != nil {
		t.Fatal(err)
	}
	assertKind(t, RevokePublicLink(ctx, link.Token, bob.Email), ErrAccessDenied)
	assertKind(t, RevokePublicLink(ctx, "missing", alice.Email), ErrNotFound)

	if err := RevokePublicLink(ctx, link.Token, alice.Email); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	assertKind(t, RevokePublicLink(ctx, link.Token, alice.Email), ErrNotFound)
	_, err = ResolvePublicLink(ctx, link.Token)
	assertKind(t, err, ErrNotFound)
	if len(auditEntries(t, alice.Email, ActionPublicLinkRevoke)) != 1 {
		t.Fatal("missing revocation audit entry")
	}
}

func TestPublicLinkTrashedFile(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	rec := upload(t, alice, "a.txt", "a")
	link, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SoftDeleteFile(ctx, alice.Email, rec.StorageKey); err != nil {
		t.Fatal(err)
	}
	_, err = ResolvePublicLink(ctx, link.Token)
	assertKind(t, err, ErrNotFound)

	_, err = GeneratePublicLink(ctx, rec.ID, alice.Email, "")
	assertKind(t, err, ErrInvalidState)
}

func TestListActiveLinks(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	alice := createUser(t, "alice")
	rec := upload(t, alice, "a.txt", "a")

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	freezeAt(base)
	old, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "http://h")
	if err != nil {
		t.Fatal(err)
	}
	freezeAt(base.Add(12 * time.Hour))
	fresh, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "http://h")
	if err != nil {
		t.Fatal(err)
	}
	revoked, err := GeneratePublicLink(ctx, rec.ID, alice.Email, "http://h")
	if err != nil {
		t.Fatal(err)
	}
	if err := RevokePublicLink(ctx, revoked.Token, alice.Email); err != nil {
		t.Fatal(err)
	}

	freezeAt(base.Add(25 * time.Hour))
	links, err := ListActiveLinks(ctx, alice.Email, "http://h")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].Token != fresh.Token {
		t.Fatalf("links = %+v", links)
	}
	if links[0].PreviewURL != "http://h/api/share/public/access/"+fresh.Token+"?preview=true" {
		t.Fatalf("preview url = %q", links[0].PreviewURL)
	}
	var tok model.PublicAccessToken
	if err := dbWith(ctx).Where("token = ?", old.Token).First(&tok).Error; err != nil {
		t.Fatal(err)
	}
	if tok.Active {
		t.Fatal("expired token should be deactivated by the listing")
	}
}
