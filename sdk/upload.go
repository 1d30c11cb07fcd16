package sdk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
)

// FileUpload is one file part of a multipart request
type FileUpload struct {
	Field    string
	FileName string
	Data     []byte
}

// NewFileUpload wraps raw bytes as a file part
func NewFileUpload(field, fileName string, data []byte) *FileUpload {
	return &FileUpload{Field: field, FileName: fileName, Data: data}
}

// LoadFileUpload reads path from disk as a file part
func LoadFileUpload(field, path string) (*FileUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewFileUpload(field, filepath.Base(path), data), nil
}

// ContentType sniffs the MIME type from the content
func (f *FileUpload) ContentType() string {
	return mimetype.Detect(f.Data).String()
}

// ValidateImage rejects files over 5 MiB or that are not images
func ValidateImage(f *FileUpload) error {
	if f == nil || len(f.Data) == 0 {
		return errcode.ErrNotImage
	}
	if len(f.Data) > constant.MaxUploadSize {
		return errcode.ErrFileTooLarge
	}
	if !strings.HasPrefix(f.ContentType(), "image/") {
		return errcode.ErrNotImage
	}
	return nil
}
