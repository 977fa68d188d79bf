package service

import (
	"Go_Vault/config"
	"Go_Vault/model"
	"Go_Vault/utils"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// RegisterUser hashes the password and creates an account.
func RegisterUser(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return nil, kindErr(ErrValidation, "username and a password of at least 6 characters are required")
	}
	normalized, err := utils.NormalizeEmail(email)
	if err != nil {
		return nil, kindErr(ErrValidation, "invalid email %q", email)
	}
	hash, err := utils.GetPwd(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		UserName: username,
		Email:    normalized,
		Password: hash,
		IsActive: true,
	}
	if err := dbWith(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, kindErr(ErrConflict, "username or email already registered")
		}
		return nil, err
	}
	LogAction(ctx, ActionUserRegister, user.Email, nil, "User registered an account")
	return user, nil
}

// Authenticate checks credentials by username or email.
func Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	query := dbWith(ctx).Where("user_name = ?", login)
	if normalized, err := utils.NormalizeEmail(login); err == nil {
		query = dbWith(ctx).Where("email = ?", normalized)
	}
	var user model.User
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kindErr(ErrAccessDenied, "invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive || !utils.CheckPwd(password, user.Password) {
		return nil, kindErr(ErrAccessDenied, "invalid credentials")
	}
	return &user, nil
}

// FindUserByEmail resolves an account, reading through the Redis cache.
func FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	normalized, err := utils.NormalizeEmail(email)
	if err != nil {
		return nil, kindErr(ErrNotFound, "user %s", email)
	}
	if user, ok := utils.GetUserFromCache(ctx, normalized); ok {
		return user, nil
	}
	var user model.User
	if err := dbWith(ctx).Where("email = ?", normalized).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "user %s", email)
	}
	ttl := config.AppConfig.UserCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if err := utils.SetUserToCache(ctx, normalized, &user, ttl); err != nil && !errors.Is(err, utils.ErrCacheDisabled) {
		log.Printf("identity: cache user %s failed: %v", normalized, err)
	}
	return &user, nil
}
