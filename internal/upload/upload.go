// Package upload inspects local files and decides whether they may be sent to the backend.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/and161185/jobassist/internal/errs"
)

// MaxSize is the exclusive upper bound on an accepted file.
const MaxSize int64 = 10 << 20

// Accepted content types.
const (
	TypePDF  = "application/pdf"
	TypePNG  = "image/png"
	TypeJPEG = "image/jpeg"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowed = []string{TypePDF, TypePNG, TypeJPEG, TypeDOCX}

// File is a candidate upload. Open yields its content.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Inspect stats path and sniffs its content type from the bytes, not the extension.
func Inspect(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("inspect %s: %w", path, err)
	}
	if st.IsDir() {
		return File{}, errs.Validation("%s is a directory", path)
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("detect type of %s: %w", path, err)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: canonical(m),
		Size:        st.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromBytes builds a File over in-memory content.
func FromBytes(name string, data []byte) File {
	return File{
		Name:        name,
		ContentType: canonical(mimetype.Detect(data)),
		Size:        int64(len(data)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// canonical maps a detection onto one of the accepted types when it is, or
// descends from, one of them; otherwise it returns the detected type.
func canonical(m *mimetype.MIME) string {
	for n := m; n != nil; n = n.Parent() {
		for _, a := range allowed {
			if n.Is(a) {
				return a
			}
		}
	}
	return m.String()
}

// Validate rejects files with a disallowed type or a size of MaxSize or more.
func Validate(f File) error {
	if !Allowed(f.ContentType) {
		return errs.Validation("please upload a PDF, PNG, JPG, or DOCX file (got %s)", f.ContentType)
	}
	if f.Size >= MaxSize {
		return errs.Validation("file size must be less than 10MB")
	}
	if f.Open == nil {
		return errs.Validation("file %q has no content", f.Name)
	}
	return nil
}

// Allowed reports whether contentType is accepted.
func Allowed(contentType string) bool {
	for _, a := range allowed {
		if a == contentType {
			return true
		}
	}
	return false
}
