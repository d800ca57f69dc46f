package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/req"
	"ticketdesk/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating upload URL.
type PresignUploadInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// authorizeAttachments resolves the caller and checks storage is enabled and
// the caller may access the ticket in the URL.
func authorizeAttachments(deps *AppDeps, r *http.Request) (user.User, string, error) {
	if deps.StorageService == nil {
		return user.User{}, "", errs.NewError(errs.ErrFileStorageDisabled)
	}

	u, err := currentUser(r)
	if err != nil {
		return user.User{}, "", err
	}

	ticketID := chi.URLParam(r, "ticketID")
	if _, err := deps.Hub.Gateway().Authorize(r.Context(), u, ticketID); err != nil {
		return user.User{}, "", err
	}

	return u, ticketID, nil
}

// newAttachmentKey returns a fresh object key under the ticket's prefix.
func newAttachmentKey(ticketID, fileName string) string {
	return ticket.KeyPrefix(ticketID) + uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
}

// HandlePresignUploadURL creates an HTTP HandlerFunc to generate a time-limited,
// pre-signed URL for file upload, scoped to a specific ticket.
func HandlePresignUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ticketID, err := authorizeAttachments(deps, r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		var input PresignUploadInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := ticket.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := ticket.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		attachment := ticket.Attachment{
			FileKey:  newAttachmentKey(ticketID, input.FileName),
			FileName: input.FileName,
			MimeType: strings.ToLower(input.MimeType),
			FileSize: input.FileSize,
		}

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			attachment.FileKey,
			attachment.MimeType,
			attachment.FileSize,
			ticket.PresignedURLDuration,
		)
		if err != nil {
			logx.Error(err, "Failed to presign upload", "ticket_id", ticketID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presigned_url": url,
			"attachment":    attachment,
		})
	}
}

// HandleUploadAttachment accepts a multipart "file" part and streams it to storage.
// The returned attachment can be referenced by a following message:send.
func HandleUploadAttachment(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ticketID, err := authorizeAttachments(deps, r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := req.SetupMultipart(w, r); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		mimeType := strings.ToLower(header.Header.Get("Content-Type"))
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = ticket.ExtToMIME[strings.ToLower(filepath.Ext(header.Filename))]
		}

		if err := ticket.ValidateFileSize(header.Size); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		if err := ticket.ValidateFileType(header.Filename, mimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		attachment := ticket.Attachment{
			FileKey:  newAttachmentKey(ticketID, header.Filename),
			FileName: header.Filename,
			MimeType: mimeType,
			FileSize: header.Size,
		}

		if err := deps.StorageService.Upload(r.Context(), attachment.FileKey, attachment.MimeType, file); err != nil {
			logx.Error(err, "Failed to upload attachment", "ticket_id", ticketID, "file_key", attachment.FileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"attachment": attachment,
		})
	}
}

// HandlePresignDownloadURL creates an HTTP HandlerFunc that redirects to a
// time-limited, pre-signed download URL for an attachment of the ticket.
func HandlePresignDownloadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ticketID, err := authorizeAttachments(deps, r)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		fileKey := r.URL.Query().Get("k")
		prefix := ticket.KeyPrefix(ticketID)
		if !strings.HasPrefix(fileKey, prefix) || len(fileKey) == len(prefix) || strings.Contains(fileKey, "..") {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentKeyInvalid))
			return
		}

		url, err := deps.StorageService.PresignDownload(r.Context(), fileKey, ticket.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign download", "ticket_id", ticketID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
