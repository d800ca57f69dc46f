package ticket

import (
	"path/filepath"
	"strings"
	"time"

	"ticketdesk/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 10

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long upload and download URLs stay valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes defines the set of permitted MIME types for file attachments.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
	"text/plain":      {},
	"text/csv":        {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".log":  "text/plain",
	".csv":  "text/csv",
}

// KeyPrefix is the object-key prefix every attachment of ticketID must carry.
func KeyPrefix(ticketID string) string {
	return ticketID + "/"
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) error {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks that the MIME type is allowed and agrees with the file extension.
func ValidateFileType(fileName string, mimeType string) error {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrAttachmentTypeInvalid)
	}

	return nil
}

// ValidateAttachment checks a single attachment record against ticketID.
func ValidateAttachment(ticketID string, a Attachment) error {
	if !strings.HasPrefix(a.FileKey, KeyPrefix(ticketID)) || len(a.FileKey) == len(KeyPrefix(ticketID)) {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}
	if strings.Contains(a.FileKey, "..") {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}
	if err := ValidateFileType(a.FileName, a.MimeType); err != nil {
		return err
	}
	return ValidateFileSize(a.FileSize)
}
