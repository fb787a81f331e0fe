package folders

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const uploadMemoryLimit = 32 << 20

// receiveUpload checks the folder before touching the body, then stores the
// multipart field "file".
func (h *HTTPService) receiveUpload(w http.ResponseWriter, r *http.Request, folder string) (*StoredFile, error) {
	_, err := h.fileStore.Folder(folder)
	if err != nil {
		return nil, err
	}

	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	err = r.ParseMultipartForm(uploadMemoryLimit)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr), strings.Contains(err.Error(), "request body too large"):
			return nil, ErrUploadTooLarge
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, ErrNoFilePart
		}
		return nil, fmt.Errorf("parse upload form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			// an empty file input arrives as a plain value
			if _, ok := r.MultipartForm.Value["file"]; ok {
				return nil, ErrNoFileSelected
			}
			return nil, ErrNoFilePart
		}
		return nil, err
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, ErrNoFileSelected
	}

	stored, err := h.fileStore.Save(folder, header.Filename, file)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"folder": folder,
		"file":   stored.Name,
		"size":   humanize.Bytes(uint64(stored.Size)),
		"sha256": stored.SHA256,
	}).Info("stored upload")

	return stored, nil
}

func (h *HTTPService) routePostUpload(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.folderParam(r)
	if !ok {
		h.handleFolderError(w, r, folder, ErrNotFound)
		return
	}

	stored, err := h.receiveUpload(w, r, folder)
	if err != nil {
		folderURL := h.url("folder", folder)
		switch {
		case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrNotFound):
			h.handleFolderError(w, r, folder, err)
		case errors.Is(err, ErrNoFilePart):
			h.redirectWithFlash(w, r, folderURL, FlashDanger, "No file part")
		case errors.Is(err, ErrNoFileSelected):
			h.redirectWithFlash(w, r, folderURL, FlashDanger, "No selected file")
		case errors.Is(err, ErrInvalidFilename):
			h.redirectWithFlash(w, r, folderURL, FlashDanger, "Invalid file name")
		case errors.Is(err, ErrUploadTooLarge):
			h.redirectWithFlash(w, r, folderURL, FlashDanger,
				fmt.Sprintf("File exceeds the upload limit of %s", humanize.Bytes(uint64(h.config.MaxUploadSize))))
		default:
			ErrorResponse(w, err)
		}
		return
	}

	h.redirectWithFlash(w, r, h.url("folder", folder), FlashSuccess,
		fmt.Sprintf("File %s uploaded successfully", stored.Name))
}
