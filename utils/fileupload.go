package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxDocumentSize is 10MB in bytes
	MaxDocumentSize = 10 * 1024 * 1024
)

// AllowedDocumentFormats are the file extensions accepted for claim
// verification documents (license scans, insurance certificates)
var AllowedDocumentFormats = []string{".pdf", ".png"}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateClaimDocument validates the uploaded verification document's format and size
func ValidateClaimDocument(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxDocumentSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxDocumentSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	for _, allowed := range AllowedDocumentFormats {
		if ext == allowed {
			return nil
		}
	}

	return &FileUploadError{
		Code:    "INVALID_FILE_FORMAT",
		Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedDocumentFormats, ", ")),
	}
}

// DocumentContentType returns the MIME type to store a claim document under
func DocumentContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
