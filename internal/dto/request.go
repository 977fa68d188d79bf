package dto

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	FirstPassword string `json:"first-password" binding:"required"`
	LastPassword  string `json:"second-password" binding:"required"`
	Email         string `json:"email" binding:"required"`
}

type RenameFileRequest struct {
	S3Key   string `json:"s3Key" binding:"required"`
	NewName string `json:"newName" binding:"required"`
}

type RenameFolderRequest struct {
	OldPath string `json:"oldPath" binding:"required"`
	NewPath string `json:"newPath" binding:"required"`
}

type ShareFileRequest struct {
	FileID         uint64 `json:"fileId" binding:"required"`
	RecipientEmail string `json:"recipientEmail" binding:"required"`
	PermissionType string `json:"permissionType"`
	Message        string `json:"message"`
}

type ShareMessageRequest struct {
	Message string `json:"message" binding:"required"`
}
