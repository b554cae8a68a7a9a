package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const uploadPrefix = "cofre-digital/users/"

// sniffLen matches the amount mimetype inspects by default.
const sniffLen = 3072

// ObjectStore stores an uploaded object and returns its public URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

type UploadService struct {
	Store    ObjectStore // nil when no object store is configured
	MaxBytes int64
	Logger   *logrus.Logger
}

func NewUploadService(store ObjectStore, maxBytes int64, logger *logrus.Logger) *UploadService {
	return &UploadService{Store: store, MaxBytes: maxBytes, Logger: logger}
}

type UploadInput struct {
	Filename     string
	DeclaredType string
	Size         int64
	Body         io.Reader
}

type Upload struct {
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename"`
	Bytes            int64  `json:"bytes"`
	MIMEType         string `json:"mimeType"`
}

// Upload validates and stores one file under the user's prefix. The size
// cap is checked before a single byte reaches the store.
func (s *UploadService) Upload(ctx context.Context, uid string, in UploadInput) (*Upload, error) {
	if in.Body == nil || in.Filename == "" {
		return nil, ErrMissingInput
	}
	if in.Size <= 0 || (s.MaxBytes > 0 && in.Size > s.MaxBytes) {
		return nil, fmt.Errorf("%w: file size %d outside 1..%d", ErrInvalidInput, in.Size, s.MaxBytes)
	}
	if s.Store == nil {
		return nil, ErrMisconfigured
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("%w: read upload: %v", ErrInvalidInput, err)
	}
	head = head[:n]
	contentType := resolveContentType(in.DeclaredType, head)

	key := ObjectKey(uid, in.Filename, contentType)
	body := io.MultiReader(bytes.NewReader(head), in.Body)
	url, err := s.Store.Put(ctx, key, contentType, body, in.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: store object: %v", ErrUpstream, err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"uid": uid, "key": key, "bytes": in.Size}).Info("file uploaded")
	}
	return &Upload{URL: url, OriginalFilename: in.Filename, Bytes: in.Size, MIMEType: contentType}, nil
}

// resolveContentType keeps a specific declared type and sniffs otherwise.
func resolveContentType(declared string, head []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(head).String()
}

// ObjectKey builds cofre-digital/users/{uid}/{uuid}-{base}{ext}.
func ObjectKey(uid, filename, contentType string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := sanitizeBase(strings.TrimSuffix(name, filepath.Ext(name)))
	if ext == "" || !validExt(ext) {
		if m := mimetype.Lookup(contentType); m != nil {
			ext = m.Extension()
		} else {
			ext = ""
		}
	}
	return uploadPrefix + uid + "/" + uuid.NewString() + "-" + base + ext
}

func sanitizeBase(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
		if b.Len() >= 80 {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "arquivo"
	}
	return out
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 10 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
