package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// UploadKind selects the validation rules applied to an upload.
type UploadKind string

const (
	// UploadPhoto is a shop-floor photo attached to a phase, problem or note.
	UploadPhoto UploadKind = "photo"
	// UploadDocument is the order confirmation PDF.
	UploadDocument UploadKind = "document"
)

const (
	// MaxPhotoSize is 10MB in bytes
	MaxPhotoSize = 10 * 1024 * 1024
	// MaxDocumentSize is 20MB in bytes
	MaxDocumentSize = 20 * 1024 * 1024
)

type uploadRule struct {
	maxSize    int64
	extensions []string
	mimeTypes  []string
}

var uploadRules = map[UploadKind]uploadRule{
	UploadPhoto: {
		maxSize:    MaxPhotoSize,
		extensions: []string{".png", ".jpg", ".jpeg"},
		mimeTypes:  []string{"image/png", "image/jpeg"},
	},
	UploadDocument: {
		maxSize:    MaxDocumentSize,
		extensions: []string{".pdf"},
		mimeTypes:  []string{"application/pdf"},
	},
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ParseUploadKind maps a form value to an UploadKind; empty means photo.
func ParseUploadKind(value string) (UploadKind, error) {
	switch UploadKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", UploadPhoto:
		return UploadPhoto, nil
	case UploadDocument:
		return UploadDocument, nil
	}
	return "", &FileUploadError{
		Code:    "INVALID_UPLOAD_KIND",
		Message: fmt.Sprintf("Unknown upload kind %q, expected photo or document", value),
	}
}

// ValidateUpload checks size, extension and sniffed content of the file and
// returns the detected content type.
func ValidateUpload(fileHeader *multipart.FileHeader, kind UploadKind) (string, error) {
	rule, ok := uploadRules[kind]
	if !ok {
		return "", &FileUploadError{Code: "INVALID_UPLOAD_KIND", Message: fmt.Sprintf("Unknown upload kind %q", kind)}
	}

	if fileHeader.Size > rule.maxSize {
		return "", &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", rule.maxSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !contains(rule.extensions, ext) {
		return "", &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(rule.extensions, ", ")),
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}
	for _, allowed := range rule.mimeTypes {
		if mtype.Is(allowed) {
			return allowed, nil
		}
	}

	return "", &FileUploadError{
		Code:    "INVALID_FILE_CONTENT",
		Message: fmt.Sprintf("File content %s does not match its extension", mtype.String()),
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
