package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	appproc "github.com/mayavriksh/backend/internal/application/procurement"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

var errNoFile = errors.New("no file")

// UploadReader turns multipart file parts into application uploads, rejecting
// parts larger than maxSize bytes.
type UploadReader struct {
	maxSize int64
}

// NewUploadReader creates an UploadReader. A non-positive maxSize disables
// the per-file limit.
func NewUploadReader(maxSize int64) UploadReader {
	return UploadReader{maxSize: maxSize}
}

// Files reads every part under field
func (r UploadReader) Files(c *gin.Context, field string) ([]appproc.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, multipartError(err)
	}
	headers := form.File[field]
	uploads := make([]appproc.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := r.read(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// File reads the single part under field. It returns errNoFile when the
// field is absent.
func (r UploadReader) File(c *gin.Context, field string) (appproc.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return appproc.Upload{}, errNoFile
	}
	if err != nil {
		return appproc.Upload{}, multipartError(err)
	}
	return r.read(fh)
}

func (r UploadReader) read(fh *multipart.FileHeader) (appproc.Upload, error) {
	if r.maxSize > 0 && fh.Size > r.maxSize {
		return appproc.Upload{}, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("File %s exceeds the %d byte limit", fh.Filename, r.maxSize))
	}
	f, err := fh.Open()
	if err != nil {
		return appproc.Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return appproc.Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return appproc.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func multipartError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return shared.NewDomainError(shared.CodeValidation, "Request body too large")
	}
	return shared.NewDomainError(shared.CodeValidation, "Invalid multipart form: "+err.Error())
}
