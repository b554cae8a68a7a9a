package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/cofre-digital/internal/container"
	handlers "github.com/oksasatya/cofre-digital/internal/interface/http"
	"github.com/oksasatya/cofre-digital/internal/interface/middleware"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// VaultModule wires folders, subfolders, items, search and upload. Every
// route requires a session.
type VaultModule struct {
	Vault    *handlers.VaultHandler
	Upload   *handlers.UploadHandler
	Verifier middleware.SessionVerifier
	Cookies  *helpers.Manager
}

func NewVaultModule(vault *handlers.VaultHandler, upload *handlers.UploadHandler, v middleware.SessionVerifier, cookies *helpers.Manager) *VaultModule {
	return &VaultModule{Vault: vault, Upload: upload, Verifier: v, Cookies: cookies}
}

func (m *VaultModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.RequireSession(m.Verifier, m.Cookies, container.GetLogger()))
	auth.Use(middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/folders", m.Vault.ListFolders)
		auth.POST("/folders", m.Vault.CreateFolder)
		auth.POST("/folders/seed", m.Vault.SeedFolders)

		auth.GET("/folders/:folderId/subfolders", m.Vault.ListSubfolders)
		auth.POST("/folders/:folderId/subfolders", m.Vault.CreateSubfolder)
		auth.DELETE("/folders/:folderId/subfolders/:subfolderId", m.Vault.DeleteSubfolder)

		auth.GET("/folders/:folderId/items", m.Vault.ListItems)
		auth.POST("/folders/:folderId/items", m.Vault.CreateItem)
		auth.DELETE("/folders/:folderId/items/:itemId", m.Vault.DeleteItem)

		auth.GET("/folders/:folderId/subfolders/:subfolderId/items", m.Vault.ListItems)
		auth.POST("/folders/:folderId/subfolders/:subfolderId/items", m.Vault.CreateItem)
		auth.DELETE("/folders/:folderId/subfolders/:subfolderId/items/:itemId", m.Vault.DeleteItem)

		auth.GET("/search", m.Vault.Search)
	}

	// Uploads get their own, tighter budget.
	up := rg.Group("/")
	up.Use(middleware.RequireSession(m.Verifier, m.Cookies, container.GetLogger()))
	up.Use(middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserIDAndPath(), nil))
	up.POST("/upload", m.Upload.Upload)
}
