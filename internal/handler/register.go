package handler

import (
	"Go_Vault/internal/dto"
	"Go_Vault/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register creates an account.
func Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FirstPassword != req.LastPassword {
		badRequest(c, "passwords do not match")
		return
	}
	user, err := service.RegisterUser(c.Request.Context(), req.Username, req.Email, req.FirstPassword)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "registered", "user": user})
}
