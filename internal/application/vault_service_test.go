package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/cofre-digital/internal/domain/entity"
	"github.com/oksasatya/cofre-digital/internal/infrastructure/memory"
)

func newVault() (*VaultService, *memory.VaultRepository) {
	repo := memory.NewVaultRepository()
	return NewVaultService(repo, nil), repo
}

func TestFolders_AreIsolatedPerUser(t *testing.T) {
	svc, _ := newVault()
	ctx := context.Background()

	f, err := svc.CreateFolder(ctx, "alice", FolderInput{Name: "  Docs  ", Icon: "📁"})
	require.NoError(t, err)
	assert.Equal(t, "Docs", f.Name)

	mine, err := svc.ListFolders(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListFolders(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, theirs)

	// Bob cannot reach into Alice's folder even knowing its id.
	_, err = svc.CreateSubfolder(ctx, "bob", f.ID, "sneaky")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ListItems(ctx, "bob", entity.Owner{FolderID: f.ID})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateItem(ctx, "bob", entity.Owner{FolderID: f.ID}, ItemInput{Title: "x", Kind: "note"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateFolder_Validation(t *testing.T) {
	svc, _ := newVault()
	_, err := svc.CreateFolder(context.Background(), "alice", FolderInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSeedDefaultFolders_Idempotent(t *testing.T) {
	svc, _ := newVault()
	ctx := context.Background()

	_, err := svc.CreateFolder(ctx, "alice", FolderInput{Name: "igreja"})
	require.NoError(t, err)

	created, err := svc.SeedDefaultFolders(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, created, len(entity.DefaultFolders)-1)

	again, err := svc.SeedDefaultFolders(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, again)

	all, err := svc.ListFolders(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, len(entity.DefaultFolders))
	assert.Equal(t, "Bancos e cartões", all[0].Name)
	assert.Equal(t, "igreja", all[len(all)-1].Name, "unpositioned folders sort last")
}

func TestSeedDefaultFolders_Concurrent(t *testing.T) {
	svc, _ := newVault()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.SeedDefaultFolders(ctx, "alice")
		}()
	}
	wg.Wait()

	all, err := svc.ListFolders(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, len(entity.DefaultFolders))
}

func TestItems_RoundTripAndOwners(t *testing.T) {
	svc, _ := newVault()
	ctx := context.Background()
	f, err := svc.CreateFolder(ctx, "alice", FolderInput{Name: "Banco"})
	require.NoError(t, err)
	sub, err := svc.CreateSubfolder(ctx, "alice", f.ID, "Cartões")
	require.NoError(t, err)

	folderOwner := entity.Owner{FolderID: f.ID}
	subOwner := entity.Owner{FolderID: f.ID, SubfolderID: sub.ID}

	note, err := svc.CreateItem(ctx, "alice", folderOwner, ItemInput{Title: "Agência", Kind: "nota", Content: "0001"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, "alice", subOwner, ItemInput{Title: "PIN", Kind: "senha", Content: "1234"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, "alice", subOwner, ItemInput{
		Title: "Contrato", Kind: "file",
		File: entity.File{URL: "https://cdn/x.pdf", Filename: "x.pdf", MIMEType: "application/pdf", Bytes: 10},
	})
	require.NoError(t, err)

	inFolder, err := svc.ListItems(ctx, "alice", folderOwner)
	require.NoError(t, err)
	require.Len(t, inFolder, 1, "subfolder items are not listed under the folder")
	assert.Equal(t, note.ID, inFolder[0].ID)
	assert.Equal(t, entity.Note{Text: "0001"}, inFolder[0].Content)

	inSub, err := svc.ListItems(ctx, "alice", subOwner)
	require.NoError(t, err)
	assert.Len(t, inSub, 2)

	require.NoError(t, svc.DeleteItem(ctx, "alice", folderOwner, note.ID))
	assert.ErrorIs(t, svc.DeleteItem(ctx, "alice", folderOwner, note.ID), ErrNotFound)

	require.NoError(t, svc.DeleteSubfolder(ctx, "alice", f.ID, sub.ID))
	_, err = svc.ListItems(ctx, "alice", subOwner)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateItem_Validation(t *testing.T) {
	svc, _ := newVault()
	ctx := context.Background()
	f, err := svc.CreateFolder(ctx, "alice", FolderInput{Name: "Docs"})
	require.NoError(t, err)
	owner := entity.Owner{FolderID: f.ID}

	cases := []ItemInput{
		{Title: " ", Kind: "note"},
		{Title: "x", Kind: "video"},
		{Title: "x", Kind: "file", File: entity.File{URL: "https://cdn/x"}},
		{Title: "x", Kind: "file", Content: "text", File: entity.File{URL: "u", Filename: "f"}},
	}
	for _, in := range cases {
		_, err := svc.CreateItem(ctx, "alice", owner, in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}
	_, err = svc.CreateItem(ctx, "alice", entity.Owner{FolderID: f.ID, SubfolderID: "nope"}, ItemInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc, repo := newVault()
	ctx := context.Background()
	f, err := svc.CreateFolder(ctx, "alice", FolderInput{Name: "Banco Inter"})
	require.NoError(t, err)
	sub, err := svc.CreateSubfolder(ctx, "alice", f.ID, "Cartão Banco")
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, "alice", entity.Owner{FolderID: f.ID, SubfolderID: sub.ID}, ItemInput{Title: "Senha do app", Kind: "password", Content: "banco123"})
	require.NoError(t, err)
	long := strings.Repeat("á", 200) + " banco"
	_, err = svc.CreateItem(ctx, "alice", entity.Owner{FolderID: f.ID}, ItemInput{Title: "Notas", Kind: "note", Content: long})
	require.NoError(t, err)
	_, err = svc.CreateFolder(ctx, "bob", FolderInput{Name: "Banco do Bob"})
	require.NoError(t, err)

	res, total, err := svc.Search(ctx, "alice", "  BANCO ")
	require.NoError(t, err)
	require.Len(t, res, 4)
	assert.Equal(t, 4, total)

	byType := map[string]int{}
	for _, r := range res {
		byType[r.Type]++
		assert.Equal(t, f.ID, r.FolderID)
		if r.Type == "item" && r.Kind == entity.KindPassword {
			assert.Empty(t, r.Snippet, "secrets never leak into snippets")
			assert.Equal(t, "Cartão Banco", r.SubfolderName)
		}
		if r.Type == "item" && r.Kind == entity.KindNote {
			assert.Equal(t, SnippetLen, len([]rune(r.Snippet)))
		}
	}
	assert.Equal(t, map[string]int{"folder": 1, "subfolder": 1, "item": 2}, byType)

	before := repo.CallCount()
	short, total, err := svc.Search(ctx, "alice", " b ")
	require.NoError(t, err)
	assert.Empty(t, short)
	assert.Zero(t, total)
	assert.Equal(t, before, repo.CallCount(), "short queries never reach the store")
}

func TestSearch_CapsResults(t *testing.T) {
	svc, _ := newVault()
	ctx := context.Background()
	f, err := svc.CreateFolder(ctx, "alice", FolderInput{Name: "Recibos"})
	require.NoError(t, err)
	for i := 0; i < SearchMaxResults+10; i++ {
		_, err := svc.CreateItem(ctx, "alice", entity.Owner{FolderID: f.ID}, ItemInput{Title: "recibo", Kind: "note"})
		require.NoError(t, err)
	}
	res, total, err := svc.Search(ctx, "alice", "recib")
	require.NoError(t, err)
	assert.Len(t, res, SearchMaxResults)
	assert.Equal(t, SearchMaxResults+11, total, "count covers every match, folder included")
	assert.Equal(t, "folder", res[0].Type)
}
