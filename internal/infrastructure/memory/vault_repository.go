package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/domain/repository"
)

// namespace holds one user's rows. Rows of different users never share a
// namespace, so a lookup can only see its own user's data.
type namespace struct {
	folders    map[string]entity.Folder
	subfolders map[string]entity.Subfolder
	items      map[string]entity.Item
}

type VaultRepository struct {
	mu    sync.Mutex
	users map[string]*namespace
	now   func() time.Time

	calls int
}

func NewVaultRepository() *VaultRepository {
	return &VaultRepository{users: make(map[string]*namespace), now: time.Now}
}

// ns must be called with mu held.
func (r *VaultRepository) ns(userID string) *namespace {
	n, ok := r.users[userID]
	if !ok {
		n = &namespace{
			folders:    make(map[string]entity.Folder),
			subfolders: make(map[string]entity.Subfolder),
			items:      make(map[string]entity.Item),
		}
		r.users[userID] = n
	}
	return n
}

func (r *VaultRepository) enter(userID string) *namespace {
	r.mu.Lock()
	r.calls++
	return r.ns(userID)
}

func (r *VaultRepository) ListFolders(_ context.Context, userID string) ([]entity.Folder, error) {
	n := r.enter(userID)
	defer r.mu.Unlock()
	out := make([]entity.Folder, 0, len(n.folders))
	for _, f := range n.folders {
		out = append(out, f)
	}
	entity.SortFolders(out)
	return out, nil
}

func (r *VaultRepository) insertFolder(n *namespace, userID string, f *entity.Folder) {
	f.ID = uuid.NewString()
	f.UserID = userID
	f.CreatedAt = r.now()
	n.folders[f.ID] = *f
}

func (r *VaultRepository) CreateFolder(_ context.Context, userID string, f *entity.Folder) error {
	n := r.enter(userID)
	defer r.mu.Unlock()
	r.insertFolder(n, userID, f)
	return nil
}

// SeedFolders holds the repository lock for the whole plan-and-insert, which
// serializes concurrent seeds the way the row lock does in postgres.
func (r *VaultRepository) SeedFolders(_ context.Context, userID string, plan repository.SeedPlanner) ([]entity.Folder, error) {
	n := r.enter(userID)
	defer r.mu.Unlock()
	existing := make([]entity.Folder, 0, len(n.folders))
	for _, f := range n.folders {
		existing = append(existing, f)
	}
	missing := plan(existing)
	for i := range missing {
		r.insertFolder(n, userID, &missing[i])
	}
	return missing, nil
}

func (r *VaultRepository) ListSubfolders(_ context.Context, userID, folderID string) ([]entity.Subfolder, error) {
	n := r.enter(userID)
	defer r.mu.Unlock()
	if _, ok := n.folders[folderID]; !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]entity.Subfolder, 0)
	for _, s := range n.subfolders {
		if s.FolderID == folderID {
			out = append(out, s)
		}
	}
	entity.SortSubfolders(out)
	return out, nil
}

func (r *VaultRepository) CreateSubfolder(_ context.Context, userID string, s *entity.Subfolder) error {
	n := r.enter(userID)
	defer r.mu.Unlock()
	if _, ok := n.folders[s.FolderID]; !ok {
		return repository.ErrNotFound
	}
	s.ID = uuid.NewString()
	s.UserID = userID
	s.CreatedAt = r.now()
	n.subfolders[s.ID] = *s
	return nil
}

func (r *VaultRepository) DeleteSubfolder(_ context.Context, userID, folderID, subfolderID string) error {
	n := r.enter(userID)
	defer r.mu.Unlock()
	s, ok := n.subfolders[subfolderID]
	if !ok || s.FolderID != folderID {
		return repository.ErrNotFound
	}
	for id, it := range n.items {
		if it.SubfolderID == subfolderID {
			delete(n.items, id)
		}
	}
	delete(n.subfolders, subfolderID)
	return nil
}

// ownerExists must be called with mu held.
func ownerExists(n *namespace, owner entity.Owner) bool {
	if _, ok := n.folders[owner.FolderID]; !ok {
		return false
	}
	if owner.SubfolderID == "" {
		return true
	}
	s, ok := n.subfolders[owner.SubfolderID]
	return ok && s.FolderID == owner.FolderID
}

func (r *VaultRepository) ListItems(_ context.Context, userID string, owner entity.Owner) ([]entity.Item, error) {
	n := r.enter(userID)
	defer r.mu.Unlock()
	if !ownerExists(n, owner) {
		return nil, repository.ErrNotFound
	}
	out := make([]entity.Item, 0)
	for _, it := range n.items {
		if it.Owner() == owner {
			out = append(out, it)
		}
	}
	entity.SortItems(out)
	return out, nil
}

func (r *VaultRepository) CreateItem(_ context.Context, userID string, it *entity.Item) error {
	n := r.enter(userID)
	defer r.mu.Unlock()
	if !ownerExists(n, it.Owner()) {
		return repository.ErrNotFound
	}
	it.ID = uuid.NewString()
	it.UserID = userID
	it.CreatedAt = r.now()
	n.items[it.ID] = *it
	return nil
}

func (r *VaultRepository) DeleteItem(_ context.Context, userID string, owner entity.Owner, itemID string) error {
	n := r.enter(userID)
	defer r.mu.Unlock()
	it, ok := n.items[itemID]
	if !ok || it.Owner() != owner {
		return repository.ErrNotFound
	}
	delete(n.items, itemID)
	return nil
}

func (r *VaultRepository) ListAllSubfolders(_ context.Context, userID string) ([]entity.Subfolder, error) {
	n := r.enter(userID)
	defer r.mu.Unlock()
	out := make([]entity.Subfolder, 0, len(n.subfolders))
	for _, s := range n.subfolders {
		out = append(out, s)
	}
	return out, nil
}

func (r *VaultRepository) ListAllItems(_ context.Context, userID string) ([]entity.Item, error) {
	n := r.enter(userID)
	defer r.mu.Unlock()
	out := make([]entity.Item, 0, len(n.items))
	for _, it := range n.items {
		out = append(out, it)
	}
	return out, nil
}

// CallCount returns the number of repository calls made so far.
func (r *VaultRepository) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var _ repository.VaultRepository = (*VaultRepository)(nil)
