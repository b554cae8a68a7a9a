package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind tags the payload carried by an Item.
type Kind string

const (
	KindNote     Kind = "note"
	KindPassword Kind = "password"
	KindLink     Kind = "link"
	KindFile     Kind = "file"
)

var (
	ErrUnknownKind    = errors.New("unknown item kind")
	ErrIncompleteFile = errors.New("file item requires url and filename")
	ErrFileContent    = errors.New("file item cannot carry text content")
)

// ParseKind accepts the canonical tags plus the legacy Portuguese ones.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "note", "nota", "":
		return KindNote, nil
	case "password", "senha":
		return KindPassword, nil
	case "link":
		return KindLink, nil
	case "file", "arquivo":
		return KindFile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Content is the closed set of item payloads. Only the types in this
// file implement it.
type Content interface {
	Kind() Kind
	sealed()
}

type Note struct{ Text string }
type Password struct{ Secret string }
type Link struct{ URL string }
type File struct {
	URL      string
	Filename string
	MIMEType string
	Bytes    int64
}

func (Note) Kind() Kind     { return KindNote }
func (Password) Kind() Kind { return KindPassword }
func (Link) Kind() Kind     { return KindLink }
func (File) Kind() Kind     { return KindFile }

func (Note) sealed()     {}
func (Password) sealed() {}
func (Link) sealed()     {}
func (File) sealed()     {}

// NewContent builds the payload for kind from the flat request fields.
func NewContent(kind Kind, text string, file File) (Content, error) {
	switch kind {
	case KindNote:
		return Note{Text: text}, nil
	case KindPassword:
		return Password{Secret: text}, nil
	case KindLink:
		return Link{URL: strings.TrimSpace(text)}, nil
	case KindFile:
		if strings.TrimSpace(text) != "" {
			return nil, ErrFileContent
		}
		file.URL = strings.TrimSpace(file.URL)
		file.Filename = strings.TrimSpace(file.Filename)
		if file.URL == "" || file.Filename == "" {
			return nil, ErrIncompleteFile
		}
		return file, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Item is a note, password, link or file owned by exactly one folder or
// subfolder. SubfolderID is empty when the folder owns it.
type Item struct {
	ID          string
	UserID      string
	FolderID    string
	SubfolderID string
	Title       string
	Content     Content
	Position    *int
	CreatedAt   time.Time
}

// Text returns the searchable free text of the item.
func (it Item) Text() string {
	switch c := it.Content.(type) {
	case Note:
		return c.Text
	case Password:
		return c.Secret
	case Link:
		return c.URL
	case File:
		return ""
	}
	return ""
}

// Row is the flat storage form of an Item's payload.
type Row struct {
	Kind     string
	Content  string
	FileURL  string
	FileName string
	MIMEType string
	Size     int64
}

// Flatten converts the payload into its storage columns.
func Flatten(c Content) Row {
	switch v := c.(type) {
	case Note:
		return Row{Kind: string(KindNote), Content: v.Text}
	case Password:
		return Row{Kind: string(KindPassword), Content: v.Secret}
	case Link:
		return Row{Kind: string(KindLink), Content: v.URL}
	case File:
		return Row{Kind: string(KindFile), FileURL: v.URL, FileName: v.Filename, MIMEType: v.MIMEType, Size: v.Bytes}
	}
	return Row{}
}

// Unflatten rebuilds a payload from storage columns.
func Unflatten(r Row) (Content, error) {
	k, err := ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	switch k {
	case KindFile:
		return File{URL: r.FileURL, Filename: r.FileName, MIMEType: r.MIMEType, Bytes: r.Size}, nil
	default:
		return NewContent(k, r.Content, File{})
	}
}

type itemJSON struct {
	ID               string    `json:"id"`
	FolderID         string    `json:"folderId"`
	SubfolderID      string    `json:"subfolderId,omitempty"`
	Title            string    `json:"title"`
	Kind             Kind      `json:"kind"`
	Content          string    `json:"content"`
	URL              string    `json:"url,omitempty"`
	OriginalFilename string    `json:"originalFilename,omitempty"`
	MIMEType         string    `json:"mimeType,omitempty"`
	Bytes            int64     `json:"bytes,omitempty"`
	Position         *int      `json:"order,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	r := Flatten(it.Content)
	return json.Marshal(itemJSON{
		ID:               it.ID,
		FolderID:         it.FolderID,
		SubfolderID:      it.SubfolderID,
		Title:            it.Title,
		Kind:             Kind(r.Kind),
		Content:          r.Content,
		URL:              r.FileURL,
		OriginalFilename: r.FileName,
		MIMEType:         r.MIMEType,
		Bytes:            r.Size,
		Position:         it.Position,
		CreatedAt:        it.CreatedAt,
	})
}

// Owner addresses the container of an item: a folder, or a subfolder
// inside it when SubfolderID is set.
type Owner struct {
	FolderID    string
	SubfolderID string
}

func (it Item) Owner() Owner {
	return Owner{FolderID: it.FolderID, SubfolderID: it.SubfolderID}
}
