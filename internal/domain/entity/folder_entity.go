package entity

import (
	"sort"
	"strings"
	"time"
)

// Folder is a top-level container in a user's vault.
// Position is nil for records created before ordering existed and for
// folders created by hand; those sort after positioned ones.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	Position  *int      `json:"order,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subfolder lives one level below a Folder.
type Subfolder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	FolderID  string    `json:"folderId"`
	Name      string    `json:"name"`
	Position  *int      `json:"order,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultFolder is one entry of the seed set.
type DefaultFolder struct {
	Name  string
	Icon  string
	Color string
}

// DefaultFolders is the fixed set created by the seed operation, in order.
var DefaultFolders = []DefaultFolder{
	{Name: "Bancos e cartões", Icon: "🏦", Color: "blue"},
	{Name: "Contas a pagar", Icon: "💳", Color: "blue"},
	{Name: "Documentos pessoais", Icon: "🧾", Color: "blue"},
	{Name: "Cartório e certidões", Icon: "🏛️", Color: "blue"},
	{Name: "Saúde e médicos", Icon: "🏥", Color: "blue"},
	{Name: "Casa e imóveis", Icon: "🏠", Color: "blue"},
	{Name: "Veículos", Icon: "🚗", Color: "blue"},
	{Name: "Streaming e assinaturas", Icon: "📺", Color: "blue"},
	{Name: "Trabalho e renda", Icon: "💼", Color: "blue"},
	{Name: "Senhas e acessos", Icon: "🔐", Color: "gold"},
	{Name: "Igreja", Icon: "🙏", Color: "gold"},
}

// NormalizeName folds a name for duplicate detection.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MissingDefaults returns the default folders not already present in
// existing, each with a position continuing after the current maximum.
func MissingDefaults(existing []Folder) []Folder {
	seen := make(map[string]struct{}, len(existing))
	next := 0
	for _, f := range existing {
		seen[NormalizeName(f.Name)] = struct{}{}
		if f.Position != nil && *f.Position >= next {
			next = *f.Position + 1
		}
	}
	out := make([]Folder, 0, len(DefaultFolders))
	for _, d := range DefaultFolders {
		if _, ok := seen[NormalizeName(d.Name)]; ok {
			continue
		}
		pos := next
		next++
		out = append(out, Folder{Name: d.Name, Icon: d.Icon, Color: d.Color, Position: &pos})
	}
	return out
}

// lessOrdered implements the listing order shared by folders, subfolders
// and items: position ascending when present, unpositioned rows last,
// then newest first, then id.
func lessOrdered(pa, pb *int, ca, cb time.Time, ida, idb string) bool {
	switch {
	case pa != nil && pb != nil && *pa != *pb:
		return *pa < *pb
	case pa != nil && pb == nil:
		return true
	case pa == nil && pb != nil:
		return false
	}
	if !ca.Equal(cb) {
		return ca.After(cb)
	}
	return ida < idb
}

func SortFolders(fs []Folder) {
	sort.SliceStable(fs, func(i, j int) bool {
		return lessOrdered(fs[i].Position, fs[j].Position, fs[i].CreatedAt, fs[j].CreatedAt, fs[i].ID, fs[j].ID)
	})
}

func SortSubfolders(ss []Subfolder) {
	sort.SliceStable(ss, func(i, j int) bool {
		return lessOrdered(ss[i].Position, ss[j].Position, ss[i].CreatedAt, ss[j].CreatedAt, ss[i].ID, ss[j].ID)
	})
}

func SortItems(its []Item) {
	sort.SliceStable(its, func(i, j int) bool {
		return lessOrdered(its[i].Position, its[j].Position, its[i].CreatedAt, its[j].CreatedAt, its[i].ID, its[j].ID)
	})
}
