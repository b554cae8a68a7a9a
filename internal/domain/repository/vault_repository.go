package repository

import (
	"context"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
)

// SeedPlanner chooses which folders to insert given the ones that exist.
type SeedPlanner func(existing []entity.Folder) []entity.Folder

// VaultRepository persists folders, subfolders and items. Every method is
// namespaced by userID; rows outside that namespace are never visible.
type VaultRepository interface {
	ListFolders(ctx context.Context, userID string) ([]entity.Folder, error)
	CreateFolder(ctx context.Context, userID string, f *entity.Folder) error
	// SeedFolders runs plan against the current folders and inserts its
	// result atomically, serialized per user.
	SeedFolders(ctx context.Context, userID string, plan SeedPlanner) ([]entity.Folder, error)

	ListSubfolders(ctx context.Context, userID, folderID string) ([]entity.Subfolder, error)
	CreateSubfolder(ctx context.Context, userID string, s *entity.Subfolder) error
	DeleteSubfolder(ctx context.Context, userID, folderID, subfolderID string) error

	ListItems(ctx context.Context, userID string, owner entity.Owner) ([]entity.Item, error)
	CreateItem(ctx context.Context, userID string, it *entity.Item) error
	DeleteItem(ctx context.Context, userID string, owner entity.Owner, itemID string) error

	// ListAllSubfolders and ListAllItems return the whole namespace in one
	// round trip each; search scans them.
	ListAllSubfolders(ctx context.Context, userID string) ([]entity.Subfolder, error)
	ListAllItems(ctx context.Context, userID string) ([]entity.Item, error)
}
