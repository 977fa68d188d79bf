package handler

import (
	"Go_Vault/internal/dto"
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTrash lists the caller's soft-deleted files.
func ListTrash(c *gin.Context) {
	records, err := service.ListTrash(c.Request.Context(), utils.CurrentEmail(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	files := make([]dto.FileResponse, 0, len(records))
	for i := range records {
		files = append(files, dto.NewFileResponse(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// SoftDeleteFile moves a file to the trash.
func SoftDeleteFile(c *gin.Context) {
	key := c.Query("fileName")
	if key == "" {
		key = c.Query("key")
	}
	if key == "" {
		badRequest(c, "fileName is required")
		return
	}
	rec, err := service.SoftDeleteFile(c.Request.Context(), utils.CurrentEmail(c), key)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, dto.NewFileResponse(rec))
}

// RestoreFile takes a file out of the trash.
func RestoreFile(c *gin.Context) {
	rec, err := service.RestoreFile(c.Request.Context(), utils.CurrentEmail(c), storageKeyParam(c, "name"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, dto.NewFileResponse(rec))
}

// DeleteFileRecord permanently deletes a trashed file.
func DeleteFileRecord(c *gin.Context) {
	if err := service.PermanentlyDeleteFile(c.Request.Context(), utils.CurrentEmail(c), storageKeyParam(c, "name")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "success"})
}
