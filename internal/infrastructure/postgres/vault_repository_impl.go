package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/domain/repository"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
)

// VaultRepository stores folders, subfolders and items. Every statement
// filters on user_id = $1.
type VaultRepository struct {
	db DB
	dl helpers.Deadline
}

func NewVaultRepository(db DB, dl helpers.Deadline) *VaultRepository {
	return &VaultRepository{db: db, dl: dl}
}

const orderBy = ` ORDER BY position ASC NULLS LAST, created_at DESC, id ASC`

const (
	folderColumns    = `id::text, name, icon, color, position, created_at`
	subfolderColumns = `id::text, folder_id::text, name, position, created_at`
	itemColumns      = `id::text, folder_id::text, subfolder_id::text, title, kind, content,
		file_url, file_name, mime_type, size_bytes, position, created_at`
)

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanFolders(rows pgx.Rows, userID string) ([]entity.Folder, error) {
	defer rows.Close()
	out := make([]entity.Folder, 0)
	for rows.Next() {
		f := entity.Folder{UserID: userID}
		if err := rows.Scan(&f.ID, &f.Name, &f.Icon, &f.Color, &f.Position, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanSubfolders(rows pgx.Rows, userID string) ([]entity.Subfolder, error) {
	defer rows.Close()
	out := make([]entity.Subfolder, 0)
	for rows.Next() {
		s := entity.Subfolder{UserID: userID}
		if err := rows.Scan(&s.ID, &s.FolderID, &s.Name, &s.Position, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanItems(rows pgx.Rows, userID string) ([]entity.Item, error) {
	defer rows.Close()
	out := make([]entity.Item, 0)
	for rows.Next() {
		var (
			it  = entity.Item{UserID: userID}
			sub *string
			row entity.Row
		)
		if err := rows.Scan(&it.ID, &it.FolderID, &sub, &it.Title, &row.Kind, &row.Content,
			&row.FileURL, &row.FileName, &row.MIMEType, &row.Size, &it.Position, &it.CreatedAt); err != nil {
			return nil, err
		}
		if sub != nil {
			it.SubfolderID = *sub
		}
		content, err := entity.Unflatten(row)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
		it.Content = content
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *VaultRepository) ListFolders(ctx context.Context, userID string) ([]entity.Folder, error) {
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, `SELECT `+folderColumns+` FROM folders WHERE user_id = $1`+orderBy, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanFolders(rows, userID)
}

func (r *VaultRepository) CreateFolder(ctx context.Context, userID string, f *entity.Folder) error {
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	f.UserID = userID
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO folders (user_id, name, icon, color, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at
	`, userID, f.Name, f.Icon, f.Color, f.Position).Scan(&f.ID, &f.CreatedAt))
}

// SeedFolders locks the user row for the length of the transaction, so two
// concurrent seeds for one user run one after the other and the second one
// sees the first one's folders.
func (r *VaultRepository) SeedFolders(ctx context.Context, userID string, plan repository.SeedPlanner) ([]entity.Folder, error) {
	if invalidUUID(userID) {
		return nil, repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()

	var created []entity.Folder
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id::text FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT `+folderColumns+` FROM folders WHERE user_id = $1`+orderBy, userID)
		if err != nil {
			return err
		}
		existing, err := scanFolders(rows, userID)
		if err != nil {
			return err
		}
		created = plan(existing)
		for i := range created {
			f := &created[i]
			f.UserID = userID
			if err := tx.QueryRow(ctx, `
				INSERT INTO folders (user_id, name, icon, color, position)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id::text, created_at
			`, userID, f.Name, f.Icon, f.Color, f.Position).Scan(&f.ID, &f.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

func (r *VaultRepository) folderExists(ctx context.Context, userID, folderID string) error {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM folders WHERE user_id = $1 AND id = $2)`, userID, folderID).Scan(&ok)
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VaultRepository) ownerExists(ctx context.Context, userID string, owner entity.Owner) error {
	if owner.SubfolderID == "" {
		return r.folderExists(ctx, userID, owner.FolderID)
	}
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM subfolders WHERE user_id = $1 AND folder_id = $2 AND id = $3)
	`, userID, owner.FolderID, owner.SubfolderID).Scan(&ok)
	if err != nil {
		return mapErr(err)
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VaultRepository) ListSubfolders(ctx context.Context, userID, folderID string) ([]entity.Subfolder, error) {
	if invalidUUID(folderID) {
		return nil, repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	if err := r.folderExists(ctx, userID, folderID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+subfolderColumns+` FROM subfolders WHERE user_id = $1 AND folder_id = $2`+orderBy, userID, folderID)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanSubfolders(rows, userID)
}

func (r *VaultRepository) CreateSubfolder(ctx context.Context, userID string, s *entity.Subfolder) error {
	if invalidUUID(s.FolderID) {
		return repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	s.UserID = userID
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO subfolders (user_id, folder_id, name, position)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM folders WHERE user_id = $1 AND id = $2)
		RETURNING id::text, created_at
	`, userID, s.FolderID, s.Name, s.Position).Scan(&s.ID, &s.CreatedAt))
}

// DeleteSubfolder relies on the cascading foreign key to remove its items.
func (r *VaultRepository) DeleteSubfolder(ctx context.Context, userID, folderID, subfolderID string) error {
	if invalidUUID(folderID, subfolderID) {
		return repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `DELETE FROM subfolders WHERE user_id = $1 AND folder_id = $2 AND id = $3`, userID, folderID, subfolderID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func invalidOwner(o entity.Owner) bool {
	if o.SubfolderID != "" {
		return invalidUUID(o.FolderID, o.SubfolderID)
	}
	return invalidUUID(o.FolderID)
}

func (r *VaultRepository) ListItems(ctx context.Context, userID string, owner entity.Owner) ([]entity.Item, error) {
	if invalidOwner(owner) {
		return nil, repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	if err := r.ownerExists(ctx, userID, owner); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE user_id = $1 AND folder_id = $2 AND subfolder_id IS NOT DISTINCT FROM $3`+orderBy,
		userID, owner.FolderID, nullable(owner.SubfolderID))
	if err != nil {
		return nil, mapErr(err)
	}
	return scanItems(rows, userID)
}

func (r *VaultRepository) CreateItem(ctx context.Context, userID string, it *entity.Item) error {
	if invalidOwner(it.Owner()) {
		return repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	if err := r.ownerExists(ctx, userID, it.Owner()); err != nil {
		return err
	}
	row := entity.Flatten(it.Content)
	it.UserID = userID
	return mapErr(r.db.QueryRow(ctx, `
		INSERT INTO items (user_id, folder_id, subfolder_id, title, kind, content,
			file_url, file_name, mime_type, size_bytes, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id::text, created_at
	`, userID, it.FolderID, nullable(it.SubfolderID), it.Title, row.Kind, row.Content,
		row.FileURL, row.FileName, row.MIMEType, row.Size, it.Position).Scan(&it.ID, &it.CreatedAt))
}

func (r *VaultRepository) DeleteItem(ctx context.Context, userID string, owner entity.Owner, itemID string) error {
	if invalidOwner(owner) || invalidUUID(itemID) {
		return repository.ErrNotFound
	}
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	tag, err := r.db.Exec(ctx, `
		DELETE FROM items
		WHERE user_id = $1 AND id = $2 AND folder_id = $3 AND subfolder_id IS NOT DISTINCT FROM $4
	`, userID, itemID, owner.FolderID, nullable(owner.SubfolderID))
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VaultRepository) ListAllSubfolders(ctx context.Context, userID string) ([]entity.Subfolder, error) {
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, `SELECT `+subfolderColumns+` FROM subfolders WHERE user_id = $1`+orderBy, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanSubfolders(rows, userID)
}

func (r *VaultRepository) ListAllItems(ctx context.Context, userID string) ([]entity.Item, error) {
	ctx, cancel := r.dl.Apply(ctx)
	defer cancel()
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE user_id = $1`+orderBy, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	return scanItems(rows, userID)
}

var _ repository.VaultRepository = (*VaultRepository)(nil)
