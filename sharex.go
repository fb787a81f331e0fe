package folders

import (
	"net/http"

	"github.com/alioygur/gores"
)

// routePostSharex accepts the same multipart upload as the HTML form but
// answers in JSON with a share link, for ShareX style clients.
func (h *HTTPService) routePostSharex(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.folderParam(r)
	if !ok {
		ErrorResponse(w, ErrNotFound)
		return
	}

	stored, err := h.receiveUpload(w, r, folder)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	link, err := h.shareLink(r, folder, stored.Name)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	gores.JSON(w, http.StatusOK, map[string]string{
		"link":   link,
		"name":   stored.Name,
		"sha256": stored.SHA256,
	})
}
