package handler

import (
	"Go_Vault/internal/dto"
	"Go_Vault/internal/service"
	"Go_Vault/model"
	"Go_Vault/utils"
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func uintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// ShareFile shares a file with another user, or re-shares after accept/decline.
func ShareFile(c *gin.Context) {
	var req dto.ShareFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	perm, reshared, err := service.ShareFile(c.Request.Context(), service.ShareRequest{
		FileID:         req.FileID,
		RecipientEmail: req.RecipientEmail,
		Kind:           model.PermissionKind(strings.ToUpper(strings.TrimSpace(req.PermissionType))),
		Message:        req.Message,
	}, utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":          "shared",
		"permissionId": perm.ID,
		"status":       perm.Status,
		"reshared":     reshared,
	})
}

// ListReceivedShares lists pending and accepted shares addressed to the caller.
func ListReceivedShares(c *gin.Context) {
	files, err := service.ListSharedWithUser(c.Request.Context(), utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, files)
}

// ListSentShares lists shares of the caller's files.
func ListSentShares(c *gin.Context) {
	shares, err := service.ListSharesSentByUser(c.Request.Context(), utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, shares)
}

// AcceptShare accepts a pending share.
func AcceptShare(c *gin.Context) {
	respondToShare(c, service.AcceptShare)
}

// DeclineShare declines a pending share.
func DeclineShare(c *gin.Context) {
	respondToShare(c, service.DeclineShare)
}

func respondToShare(c *gin.Context, respond func(context.Context, uint64, string) (*model.SharePermission, error)) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	perm, err := respond(c.Request.Context(), id, utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "success", "status": perm.Status})
}

// ListFileRecipients lists who a file is shared with.
func ListFileRecipients(c *gin.Context) {
	fileID, ok := uintParam(c, "fileId")
	if !ok {
		return
	}
	recipients, err := service.ListFileRecipients(c.Request.Context(), fileID, utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, recipients)
}

// RevokeAccess removes a user's share of a file.
func RevokeAccess(c *gin.Context) {
	fileID, ok := uintParam(c, "fileId")
	if !ok {
		return
	}
	if err := service.RevokeAccess(c.Request.Context(), fileID, c.Param("email"), utils.CurrentEmail(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "access revoked"})
}

// UpdateShareMessage replaces the note attached to a share.
func UpdateShareMessage(c *gin.Context) {
	fileID, ok := uintParam(c, "fileId")
	if !ok {
		return
	}
	var req dto.ShareMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	perm, err := service.UpdateShareMessage(c.Request.Context(), fileID, c.Param("email"), req.Message, utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "message updated", "message": perm.Message})
}

// RemoveShareMessage clears the note attached to a share.
func RemoveShareMessage(c *gin.Context) {
	fileID, ok := uintParam(c, "fileId")
	if !ok {
		return
	}
	if err := service.RemoveShareMessage(c.Request.Context(), fileID, c.Param("email"), utils.CurrentEmail(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "message removed"})
}
