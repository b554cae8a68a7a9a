package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/pkg/response"
)

type VaultHandler struct {
	Svc    *application.VaultService
	Logger *logrus.Logger
}

func NewVaultHandler(svc *application.VaultService, logger *logrus.Logger) *VaultHandler {
	return &VaultHandler{Svc: svc, Logger: logger}
}

type createFolderRequest struct {
	Name  string `json:"name" binding:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type createSubfolderRequest struct {
	Name string `json:"name" binding:"required"`
}

type createItemRequest struct {
	Title            string `json:"title" binding:"required"`
	Kind             string `json:"kind"`
	Content          string `json:"content"`
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename"`
	MIMEType         string `json:"mimeType"`
	Bytes            int64  `json:"bytes" binding:"gte=0"`
}

// owner reads the container from the route: a folder, or a subfolder when
// the route carries one.
func owner(c *gin.Context) entity.Owner {
	return entity.Owner{FolderID: c.Param("folderId"), SubfolderID: c.Param("subfolderId")}
}

func (h *VaultHandler) ListFolders(c *gin.Context) {
	fs, err := h.Svc.ListFolders(c.Request.Context(), currentUID(c))
	if err != nil {
		fail(c, h.Logger, "folders_list", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"folders": fs})
}

func (h *VaultHandler) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	f, err := h.Svc.CreateFolder(c.Request.Context(), currentUID(c), application.FolderInput{Name: req.Name, Icon: req.Icon, Color: req.Color})
	if err != nil {
		fail(c, h.Logger, "folder_create", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"id": f.ID, "folder": f})
}

// SeedFolders fills in the default folders the user is missing.
func (h *VaultHandler) SeedFolders(c *gin.Context) {
	created, err := h.Svc.SeedDefaultFolders(c.Request.Context(), currentUID(c))
	if err != nil {
		fail(c, h.Logger, "folders_seed", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"seeded": len(created) > 0, "created": len(created)})
}

func (h *VaultHandler) ListSubfolders(c *gin.Context) {
	subs, err := h.Svc.ListSubfolders(c.Request.Context(), currentUID(c), c.Param("folderId"))
	if err != nil {
		fail(c, h.Logger, "subfolders_list", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"subfolders": subs})
}

func (h *VaultHandler) CreateSubfolder(c *gin.Context) {
	var req createSubfolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	sub, err := h.Svc.CreateSubfolder(c.Request.Context(), currentUID(c), c.Param("folderId"), req.Name)
	if err != nil {
		fail(c, h.Logger, "subfolder_create", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"id": sub.ID, "subfolder": sub})
}

func (h *VaultHandler) DeleteSubfolder(c *gin.Context) {
	if err := h.Svc.DeleteSubfolder(c.Request.Context(), currentUID(c), c.Param("folderId"), c.Param("subfolderId")); err != nil {
		fail(c, h.Logger, "subfolder_delete", err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func (h *VaultHandler) ListItems(c *gin.Context) {
	items, err := h.Svc.ListItems(c.Request.Context(), currentUID(c), owner(c))
	if err != nil {
		fail(c, h.Logger, "items_list", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"items": items})
}

func (h *VaultHandler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badPayload(c, err)
		return
	}
	in := application.ItemInput{
		Title:   req.Title,
		Kind:    req.Kind,
		Content: req.Content,
		File: entity.File{
			URL:      req.URL,
			Filename: req.OriginalFilename,
			MIMEType: req.MIMEType,
			Bytes:    req.Bytes,
		},
	}
	it, err := h.Svc.CreateItem(c.Request.Context(), currentUID(c), owner(c), in)
	if err != nil {
		fail(c, h.Logger, "item_create", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"id": it.ID, "item": it})
}

func (h *VaultHandler) DeleteItem(c *gin.Context) {
	if err := h.Svc.DeleteItem(c.Request.Context(), currentUID(c), owner(c), c.Param("itemId")); err != nil {
		fail(c, h.Logger, "item_delete", err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

// Search handles GET /api/search?q=.
func (h *VaultHandler) Search(c *gin.Context) {
	q := application.NormalizeQuery(c.Query("q"))
	results, total, err := h.Svc.Search(c.Request.Context(), currentUID(c), q)
	if err != nil {
		fail(c, h.Logger, "search", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"q": q, "count": total, "results": results})
}
