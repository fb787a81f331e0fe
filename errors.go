package folders

import (
	"errors"
	"net/http"

	"github.com/alioygur/gores"
	"github.com/sirupsen/logrus"
)

var (
	ErrAccessDenied    = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrNoFilePart      = errors.New("no file part")
	ErrNoFileSelected  = errors.New("no selected file")
	ErrInvalidFilename = errors.New("invalid file name")
	ErrUploadTooLarge  = errors.New("upload too large")
	ErrInvalidToken    = errors.New("invalid share token")
)

// ErrorResponse writes a plain error for routes that do not redirect.
func ErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAccessDenied):
		gores.Error(w, http.StatusForbidden, "access denied")
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidToken):
		gores.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrNoFilePart), errors.Is(err, ErrNoFileSelected), errors.Is(err, ErrInvalidFilename):
		gores.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUploadTooLarge):
		gores.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		logrus.WithError(err).Error("request failed")
		gores.Error(w, http.StatusInternalServerError, "something went wrong")
	}
}
