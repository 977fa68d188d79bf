package handler

import (
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("handler: %s %s: %v", c.Request.Method, c.FullPath(), err)
		if !errors.Is(err, service.ErrStorage) {
			msg = "internal error"
		}
	}
	utils.Fail(c, status, msg)
}

func badRequest(c *gin.Context, msg string) {
	utils.Fail(c, http.StatusBadRequest, msg)
}

// publicBaseURL prefers the configured base URL and falls back to the request's forwarded scheme and host.
func publicBaseURL(c *gin.Context, configured string) string {
	baseURL := strings.TrimSpace(configured)
	if baseURL == "" {
		scheme := "http"
		if forwarded := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); forwarded != "" {
			scheme = forwarded
		} else if c.Request.TLS != nil {
			scheme = "https"
		}
		host := strings.TrimSpace(c.GetHeader("X-Forwarded-Host"))
		if host == "" {
			host = c.Request.Host
		}
		baseURL = scheme + "://" + host
	}
	return strings.TrimRight(baseURL, "/")
}

// storageKeyParam reads a storage key from the path parameter or, when absent, the key query.
func storageKeyParam(c *gin.Context, param string) string {
	if key := c.Query("key"); key != "" {
		return key
	}
	return strings.TrimPrefix(c.Param(param), "/")
}
