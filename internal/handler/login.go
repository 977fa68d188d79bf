package handler

import (
	"Go_Vault/internal/dto"
	"Go_Vault/internal/service"
	"Go_Vault/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Login authenticates by username or email and returns a token.
func Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			utils.Fail(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeServiceError(c, err)
		return
	}
	token, err := utils.GenerateToken(user.ID, user.UserName, user.Email)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, "issue token failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"token":   token,
		"user":    user,
	})
}
