package service

import (
	"Go_Vault/model"
	"Go_Vault/utils"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PublicLinkTTL is the lifetime of every public token.
const PublicLinkTTL = 24 * time.Hour

const publicAccessPath = "/api/share/public/access/"

// PublicLink is a token with its two URLs.
type PublicLink struct {
	Token       string    `json:"token"`
	FileID      uint64    `json:"file_id"`
	FileName    string    `json:"file_name"`
	ExpiresAt   time.Time `json:"expires_at"`
	PreviewURL  string    `json:"preview_link"`
	DownloadURL string    `json:"download_link"`
}

// PublicFile is a resolved public link. The caller closes Body.
type PublicFile struct {
	File      *model.FileRecord
	Body      io.ReadCloser
	Size      int64
	MediaType string
}

// PublicLinkURLs builds the download URL and the preview URL, which adds preview=true.
func PublicLinkURLs(baseURL, token string) (preview, download string) {
	download = strings.TrimRight(baseURL, "/") + publicAccessPath + url.PathEscape(token)
	return download + "?preview=true", download
}

func toPublicLink(tok *model.PublicAccessToken, file *model.FileRecord, baseURL string) PublicLink {
	preview, download := PublicLinkURLs(baseURL, tok.Token)
	return PublicLink{
		Token:       tok.Token,
		FileID:      tok.FileID,
		FileName:    file.DisplayName,
		ExpiresAt:   tok.ExpiresAt,
		PreviewURL:  preview,
		DownloadURL: download,
	}
}

// GeneratePublicLink mints a 24h token for an owned, active file.
func GeneratePublicLink(ctx context.Context, fileID uint64, ownerEmail, baseURL string) (*PublicLink, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	var rec *model.FileRecord
	var tok *model.PublicAccessToken
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rec, err = lockOwnedFile(tx, fileID, owner.ID); err != nil {
			return err
		}
		t := now()
		tok = &model.PublicAccessToken{
			Token:     utils.GetToken(),
			FileID:    rec.ID,
			ExpiresAt: t.Add(PublicLinkTTL),
			Active:    true,
			CreatedAt: t,
		}
		if err := tx.Create(tok).Error; err != nil {
			if isDuplicateKey(err) {
				return kindErr(ErrConflict, "token collision, retry")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	LogAction(ctx, ActionPublicLinkGenerate, owner.Email, rec,
		fmt.Sprintf("Generated a public link for '%s'", rec.DisplayName))
	link := toPublicLink(tok, rec, baseURL)
	return &link, nil
}

// deactivateIfExpired flips an expired token to inactive and reports whether it did.
func deactivateIfExpired(tx *gorm.DB, tok *model.PublicAccessToken, at time.Time) (bool, error) {
	if at.Before(tok.ExpiresAt) {
		return false, nil
	}
	if err := tx.Model(tok).Update("active", false).Error; err != nil {
		return false, err
	}
	tok.Active = false
	return true, nil
}

// ResolvePublicLink redeems a token. An expired token is deactivated and fails with ErrExpired.
func ResolvePublicLink(ctx context.Context, token string) (*PublicFile, error) {
	pf, err := resolvePublicLink(ctx, token)
	switch {
	case err == nil:
		publicLinkAccessTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrExpired):
		publicLinkAccessTotal.WithLabelValues("expired").Inc()
	case errors.Is(err, ErrNotFound):
		publicLinkAccessTotal.WithLabelValues("not_found").Inc()
	default:
		publicLinkAccessTotal.WithLabelValues("error").Inc()
	}
	return pf, err
}

func resolvePublicLink(ctx context.Context, token string) (*PublicFile, error) {
	var tok model.PublicAccessToken
	var rec model.FileRecord
	expired := false
	err := dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("token = ?", token).First(&tok).Error; err != nil {
			return notFoundOr(err, "public link not found or revoked")
		}
		if !tok.Active {
			// a token switched off by an earlier expired access keeps failing as expired
			if !now().Before(tok.ExpiresAt) {
				expired = true
				return nil
			}
			return kindErr(ErrNotFound, "public link not found or revoked")
		}
		var err error
		if expired, err = deactivateIfExpired(tx, &tok, now()); err != nil || expired {
			return err
		}
		if err := tx.Where("id = ? AND deleted_at IS NULL", tok.FileID).First(&rec).Error; err != nil {
			return notFoundOr(err, "shared file is no longer available")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, kindErr(ErrExpired, "This link has expired.")
	}

	body, info, err := openObject(ctx, rec.StorageKey)
	if err != nil {
		return nil, err
	}
	mediaType := info.ContentType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	LogAction(ctx, ActionPublicFileAccess, AnonymousActor, &rec, "File accessed via public link")
	return &PublicFile{File: &rec, Body: body, Size: info.Size, MediaType: mediaType}, nil
}

// RevokePublicLink deactivates a token. Only the bound file's owner may revoke it.
func RevokePublicLink(ctx context.Context, token, requesterEmail string) error {
	requester, err := FindUserByEmail(ctx, requesterEmail)
	if err != nil {
		return err
	}
	var tok model.PublicAccessToken
	var rec model.FileRecord
	expired := false
	err = dbWith(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("token = ?", token).First(&tok).Error; err != nil {
			return notFoundOr(err, "public link not found")
		}
		if err := tx.Where("id = ?", tok.FileID).First(&rec).Error; err != nil {
			return notFoundOr(err, "public link not found")
		}
		if rec.UserID != requester.ID {
			return kindErr(ErrAccessDenied, "only the file owner can revoke this link")
		}
		if !tok.Active {
			return kindErr(ErrNotFound, "public link already revoked")
		}
		var err error
		if expired, err = deactivateIfExpired(tx, &tok, now()); err != nil || expired {
			return err
		}
		return tx.Model(&tok).Update("active", false).Error
	})
	if err != nil {
		return err
	}
	if expired {
		return kindErr(ErrExpired, "This link has already expired.")
	}
	LogAction(ctx, ActionPublicLinkRevoke, requester.Email, &rec,
		fmt.Sprintf("Revoked a public link for '%s'", rec.DisplayName))
	return nil
}

// ListActiveLinks returns the owner's usable links. Expired tokens found here are deactivated.
func ListActiveLinks(ctx context.Context, ownerEmail, baseURL string) ([]PublicLink, error) {
	owner, err := FindUserByEmail(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	var tokens []model.PublicAccessToken
	err = dbWith(ctx).
		Joins("JOIN file_record ON file_record.id = public_access_token.file_id").
		Where("file_record.user_id = ? AND file_record.deleted_at IS NULL AND public_access_token.active = ?", owner.ID, true).
		Preload("File").
		Order("public_access_token.created_at DESC").Order("public_access_token.id DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}

	t := now()
	out := make([]PublicLink, 0, len(tokens))
	var stale []uint64
	for i := range tokens {
		if !tokens[i].Usable(t) {
			stale = append(stale, tokens[i].ID)
			continue
		}
		out = append(out, toPublicLink(&tokens[i], &tokens[i].File, baseURL))
	}
	if len(stale) > 0 {
		if err := dbWith(ctx).Model(&model.PublicAccessToken{}).
			Where("id IN ?", stale).
			Update("active", false).Error; err != nil {
			return nil, err
		}
	}
	return out, nil
}
