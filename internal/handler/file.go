package handler

import (
	"Go_Vault/internal/dto"
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"io"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// UploadFile stores a multipart "file", optionally under the folder given by "path".
func UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	name := header.Filename
	if folder := strings.TrimSpace(c.PostForm("path")); folder != "" {
		name = path.Join(folder, path.Base(header.Filename))
	}
	src, err := header.Open()
	if err != nil {
		badRequest(c, "read upload failed: "+err.Error())
		return
	}
	defer src.Close()

	rec, err := service.UploadFile(
		c.Request.Context(),
		utils.CurrentEmail(c),
		name,
		src,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "uploaded", "s3Key": rec.StorageKey, "file": dto.NewFileResponse(rec)})
}

// DownloadFile streams a file the caller owns or has an accepted share of.
func DownloadFile(c *gin.Context) {
	key := c.Query("s3Key")
	if key == "" {
		key = c.Query("key")
	}
	if key == "" {
		badRequest(c, "s3Key is required")
		return
	}
	rec, body, info, err := service.OpenFile(c.Request.Context(), utils.CurrentEmail(c), key)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer body.Close()
	writeObject(c, body, rec.DisplayName, info.ContentType, info.Size, false)
}

func writeObject(c *gin.Context, body io.Reader, name, contentType string, size int64, inline bool) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", utils.ContentDisposition(name, inline))
	c.Header("Content-Type", contentType)
	if size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Printf("handler: stream %s: %v", name, err)
	}
}

// ListFiles returns the caller's active files, optionally filtered by ?q= and sorted by ?orderBy=&desc=true.
func ListFiles(c *gin.Context) {
	files, err := service.ListFiles(c.Request.Context(), utils.CurrentEmail(c), service.FileQuery{
		Query:     c.Query("q"),
		OrderBy:   c.Query("orderBy"),
		OrderDesc: c.Query("desc") == "true",
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, files)
}

// RenameFile renames one file.
func RenameFile(c *gin.Context) {
	var req dto.RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	rec, err := service.RenameFile(c.Request.Context(), utils.CurrentEmail(c), req.S3Key, req.NewName)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	utils.Success(c, dto.NewFileResponse(rec))
}

// RenameFolder moves every file under a folder prefix. Partial failures return 207.
func RenameFolder(c *gin.Context) {
	var req dto.RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := service.RenameFolder(c.Request.Context(), utils.CurrentEmail(c), req.OldPath, req.NewPath)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeFolderResult(c, result)
}

// DeleteFolder permanently deletes every file under a folder prefix.
func DeleteFolder(c *gin.Context) {
	folder := c.Query("path")
	if folder == "" {
		badRequest(c, "path is required")
		return
	}
	result, err := service.DeleteFolder(c.Request.Context(), utils.CurrentEmail(c), folder)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeFolderResult(c, result)
}

// DownloadFolder streams every active file under a folder as a zip archive.
func DownloadFolder(c *gin.Context) {
	folder := c.Query("path")
	if folder == "" {
		badRequest(c, "path is required")
		return
	}
	entries, name, err := service.BuildFolderArchive(c.Request.Context(), utils.CurrentEmail(c), folder)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", utils.ContentDisposition(name, false))
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)
	if err := service.WriteArchive(c.Request.Context(), c.Writer, entries); err != nil {
		log.Printf("handler: archive %s: %v", folder, err)
	}
}

func writeFolderResult(c *gin.Context, result *service.FolderResult) {
	status := http.StatusOK
	if result.Partial() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{
		"code":    0,
		"partial": result.Partial(),
		"data":    result,
	})
}
