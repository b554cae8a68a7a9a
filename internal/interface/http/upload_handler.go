package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/pkg/response"
)

// multipartSlack covers the multipart framing around the file part.
const multipartSlack = 1 << 20

type UploadHandler struct {
	Svc    *application.UploadService
	Logger *logrus.Logger
}

func NewUploadHandler(svc *application.UploadService, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{Svc: svc, Logger: logger}
}

// Upload handles POST /api/upload with a multipart "file" part.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.Svc.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxBytes+multipartSlack)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, h.Logger, "upload", application.ErrInvalidInput)
			return
		}
		fail(c, h.Logger, "upload", application.ErrMissingInput)
		return
	}
	in := application.UploadInput{
		Filename:     fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Size:         fh.Size,
	}
	// Reject on the header size before opening the part.
	if h.Svc.MaxBytes > 0 && fh.Size > h.Svc.MaxBytes {
		fail(c, h.Logger, "upload", application.ErrInvalidInput)
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, h.Logger, "upload", err)
		return
	}
	defer f.Close()
	in.Body = f

	up, err := h.Svc.Upload(c.Request.Context(), currentUID(c), in)
	if err != nil {
		fail(c, h.Logger, "upload", err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{
		"url":              up.URL,
		"originalFilename": up.OriginalFilename,
		"bytes":            up.Bytes,
		"mimeType":         up.MIMEType,
	})
}
