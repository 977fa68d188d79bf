package router

import (
	"Go_Vault/config"
	"Go_Vault/internal/handler"
	"Go_Vault/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	// Storage keys may carry an escaped "/" inside a single path segment.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(utils.MetricsMiddleware())
	r.Use(utils.CORSMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicLimiter := utils.NewClientLimiter(
		config.AppConfig.PublicAccessRate,
		config.AppConfig.PublicAccessBurst,
		config.AppConfig.PublicLimiterSize,
		10*time.Minute,
	)

	api := r.Group("/api")
	{
		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)
		api.GET("/share/public/access/:token", utils.RateLimitMiddleware(publicLimiter), handler.AccessPublicLink)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())

		file := auth.Group("/file")
		{
			file.POST("/upload", handler.UploadFile)
			file.GET("/download", handler.DownloadFile)
			file.GET("/list", handler.ListFiles)
			file.GET("/trash", handler.ListTrash)
			file.DELETE("/delete", handler.SoftDeleteFile)
			file.POST("/:name/restore", handler.RestoreFile)
			file.DELETE("/:name/permanent", handler.DeleteFileRecord)
			file.PUT("/rename", handler.RenameFile)
			file.PUT("/folder/rename", handler.RenameFolder)
			file.DELETE("/folder", handler.DeleteFolder)
			file.GET("/folder/archive", handler.DownloadFolder)
		}

		share := auth.Group("/share")
		{
			share.POST("", handler.ShareFile)
			share.GET("/received", handler.ListReceivedShares)
			share.GET("/sent", handler.ListSentShares)
			share.POST("/accept/:id", handler.AcceptShare)
			share.POST("/decline/:id", handler.DeclineShare)
			share.GET("/:fileId/users", handler.ListFileRecipients)
			share.DELETE("/:fileId/user/:email", handler.RevokeAccess)
			share.PUT("/:fileId/shared/:email/message", handler.UpdateShareMessage)
			share.DELETE("/:fileId/user/:email/message", handler.RemoveShareMessage)

			share.POST("/public/:fileId", handler.GeneratePublicLink)
			share.DELETE("/public/access/:token", handler.RevokePublicLink)
			share.GET("/public/list", handler.ListPublicLinks)
		}

		activity := auth.Group("/activity")
		{
			activity.GET("", handler.RecentActivity)
			activity.GET("/all", handler.AllActivity)
		}
	}
	return r
}
