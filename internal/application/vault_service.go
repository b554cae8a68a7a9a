package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	repo "github.com/oksasatya/cofre-digital/internal/domain/repository"
)

const (
	SearchMinLen     = 2
	SearchMaxResults = 50
	SnippetLen       = 120
)

// VaultService owns folders, subfolders and items. Every method takes the
// uid of a verified session; nothing in a request body can widen it.
type VaultService struct {
	Repo   repo.VaultRepository
	Logger *logrus.Logger
}

func NewVaultService(r repo.VaultRepository, logger *logrus.Logger) *VaultService {
	return &VaultService{Repo: r, Logger: logger}
}

type FolderInput struct {
	Name  string
	Icon  string
	Color string
}

type ItemInput struct {
	Title   string
	Kind    string
	Content string
	File    entity.File
}

// storeErr maps repository failures onto the service taxonomy.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
	}
}

func (s *VaultService) ListFolders(ctx context.Context, uid string) ([]entity.Folder, error) {
	fs, err := s.Repo.ListFolders(ctx, uid)
	if err != nil {
		return nil, storeErr("list folders", err)
	}
	entity.SortFolders(fs)
	return fs, nil
}

func (s *VaultService) CreateFolder(ctx context.Context, uid string, in FolderInput) (*entity.Folder, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	f := &entity.Folder{
		Name:  name,
		Icon:  strings.TrimSpace(in.Icon),
		Color: strings.TrimSpace(in.Color),
	}
	if err := s.Repo.CreateFolder(ctx, uid, f); err != nil {
		return nil, storeErr("create folder", err)
	}
	return f, nil
}

// SeedDefaultFolders creates whichever default folders the user is missing
// and returns them. Calling it again is a no-op.
func (s *VaultService) SeedDefaultFolders(ctx context.Context, uid string) ([]entity.Folder, error) {
	created, err := s.Repo.SeedFolders(ctx, uid, entity.MissingDefaults)
	if err != nil {
		return nil, storeErr("seed folders", err)
	}
	if len(created) > 0 && s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"uid": uid, "created": len(created)}).Info("default folders seeded")
	}
	return created, nil
}

func (s *VaultService) ListSubfolders(ctx context.Context, uid, folderID string) ([]entity.Subfolder, error) {
	subs, err := s.Repo.ListSubfolders(ctx, uid, folderID)
	if err != nil {
		return nil, storeErr("list subfolders", err)
	}
	entity.SortSubfolders(subs)
	return subs, nil
}

func (s *VaultService) CreateSubfolder(ctx context.Context, uid, folderID, name string) (*entity.Subfolder, error) {
	name = strings.TrimSpace(name)
	if name == "" || folderID == "" {
		return nil, ErrInvalidInput
	}
	sub := &entity.Subfolder{FolderID: folderID, Name: name}
	if err := s.Repo.CreateSubfolder(ctx, uid, sub); err != nil {
		return nil, storeErr("create subfolder", err)
	}
	return sub, nil
}

// DeleteSubfolder removes a subfolder together with its items.
func (s *VaultService) DeleteSubfolder(ctx context.Context, uid, folderID, subfolderID string) error {
	return storeErr("delete subfolder", s.Repo.DeleteSubfolder(ctx, uid, folderID, subfolderID))
}

func (s *VaultService) ListItems(ctx context.Context, uid string, owner entity.Owner) ([]entity.Item, error) {
	its, err := s.Repo.ListItems(ctx, uid, owner)
	if err != nil {
		return nil, storeErr("list items", err)
	}
	entity.SortItems(its)
	return its, nil
}

func (s *VaultService) CreateItem(ctx context.Context, uid string, owner entity.Owner, in ItemInput) (*entity.Item, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || owner.FolderID == "" {
		return nil, ErrInvalidInput
	}
	kind, err := entity.ParseKind(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	content, err := entity.NewContent(kind, in.Content, in.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	it := &entity.Item{
		FolderID:    owner.FolderID,
		SubfolderID: owner.SubfolderID,
		Title:       title,
		Content:     content,
	}
	if err := s.Repo.CreateItem(ctx, uid, it); err != nil {
		return nil, storeErr("create item", err)
	}
	return it, nil
}

func (s *VaultService) DeleteItem(ctx context.Context, uid string, owner entity.Owner, itemID string) error {
	return storeErr("delete item", s.Repo.DeleteItem(ctx, uid, owner, itemID))
}

// SearchResult is one hit, pointing at the folder, subfolder or item that
// matched.
type SearchResult struct {
	Type          string      `json:"type"`
	FolderID      string      `json:"folderId"`
	FolderName    string      `json:"folderName"`
	SubfolderID   string      `json:"subfolderId"`
	SubfolderName string      `json:"subfolderName"`
	ItemID        string      `json:"itemId,omitempty"`
	Title         string      `json:"title"`
	Kind          entity.Kind `json:"kind,omitempty"`
	Snippet       string      `json:"snippet"`
}

// NormalizeQuery trims and lowercases a search query.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Search scans the user's folders, subfolders and items for q as a
// case-insensitive substring. Queries shorter than SearchMinLen runes
// return nothing without touching the store. total counts every match;
// only the first SearchMaxResults are returned.
func (s *VaultService) Search(ctx context.Context, uid, q string) (results []SearchResult, total int, err error) {
	q = NormalizeQuery(q)
	if utf8.RuneCountInString(q) < SearchMinLen {
		return []SearchResult{}, 0, nil
	}

	folders, err := s.ListFolders(ctx, uid)
	if err != nil {
		return nil, 0, err
	}
	subs, err := s.Repo.ListAllSubfolders(ctx, uid)
	if err != nil {
		return nil, 0, storeErr("list subfolders", err)
	}
	entity.SortSubfolders(subs)
	items, err := s.Repo.ListAllItems(ctx, uid)
	if err != nil {
		return nil, 0, storeErr("list items", err)
	}
	entity.SortItems(items)

	folderNames := make(map[string]string, len(folders))
	for _, f := range folders {
		folderNames[f.ID] = f.Name
	}
	subNames := make(map[string]string, len(subs))
	for _, sf := range subs {
		subNames[sf.ID] = sf.Name
	}

	results = make([]SearchResult, 0, 16)
	match := func(v string) bool { return strings.Contains(strings.ToLower(v), q) }

	for _, f := range folders {
		if match(f.Name) {
			results = append(results, SearchResult{Type: "folder", FolderID: f.ID, FolderName: f.Name, Title: f.Name})
		}
	}
	for _, sf := range subs {
		fname, ok := folderNames[sf.FolderID]
		if !ok {
			continue
		}
		if match(sf.Name) {
			results = append(results, SearchResult{
				Type: "subfolder", FolderID: sf.FolderID, FolderName: fname,
				SubfolderID: sf.ID, SubfolderName: sf.Name, Title: sf.Name,
			})
		}
	}
	for _, it := range items {
		fname, ok := folderNames[it.FolderID]
		if !ok {
			continue
		}
		text := it.Text()
		if !match(it.Title) && !match(text) {
			continue
		}
		snip := snippet(text)
		if it.Content.Kind() == entity.KindPassword {
			snip = ""
		}
		results = append(results, SearchResult{
			Type:          "item",
			FolderID:      it.FolderID,
			FolderName:    fname,
			SubfolderID:   it.SubfolderID,
			SubfolderName: subNames[it.SubfolderID],
			ItemID:        it.ID,
			Title:         it.Title,
			Kind:          it.Content.Kind(),
			Snippet:       snip,
		})
	}
	total = len(results)
	if total > SearchMaxResults {
		results = results[:SearchMaxResults]
	}
	return results, total, nil
}

func snippet(s string) string {
	if utf8.RuneCountInString(s) <= SnippetLen {
		return s
	}
	return string([]rune(s)[:SnippetLen])
}
