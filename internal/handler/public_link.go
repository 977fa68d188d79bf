package handler

import (
	"Go_Vault/config"
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GeneratePublicLink issues a 24h anonymous link for a file.
func GeneratePublicLink(c *gin.Context) {
	fileID, ok := uintParam(c, "fileId")
	if !ok {
		return
	}
	link, err := service.GeneratePublicLink(
		c.Request.Context(),
		fileID,
		utils.CurrentEmail(c),
		publicBaseURL(c, config.AppConfig.AppBaseURL),
	)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, link)
}

// AccessPublicLink serves a file to anyone holding a valid token. preview=true renders inline.
func AccessPublicLink(c *gin.Context) {
	pf, err := service.ResolvePublicLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		// anonymous callers get 400 for every unusable link
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrExpired) {
			badRequest(c, err.Error())
			return
		}
		writeServiceError(c, err)
		return
	}
	defer pf.Body.Close()
	writeObject(c, pf.Body, pf.File.DisplayName, pf.MediaType, pf.Size, c.Query("preview") == "true")
}

// RevokePublicLink deactivates a token the caller owns.
func RevokePublicLink(c *gin.Context) {
	if err := service.RevokePublicLink(c.Request.Context(), c.Param("token"), utils.CurrentEmail(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "link revoked"})
}

// ListPublicLinks lists the caller's usable links.
func ListPublicLinks(c *gin.Context) {
	links, err := service.ListActiveLinks(
		c.Request.Context(),
		utils.CurrentEmail(c),
		publicBaseURL(c, config.AppConfig.AppBaseURL),
	)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, links)
}
