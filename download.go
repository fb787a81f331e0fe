package folders

import (
	"errors"
	"mime"
	"net/http"
)

func (h *HTTPService) routeGetDownload(w http.ResponseWriter, r *http.Request) {
	folder, filename, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	err := h.serveFile(w, r, folder, filename)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			h.redirectWithFlash(w, r, h.url(), FlashDanger, "Access denied")
			return
		}
		ErrorResponse(w, err)
	}
}

// serveFile streams a file as an attachment. Nothing is written when it
// returns an error.
func (h *HTTPService) serveFile(w http.ResponseWriter, r *http.Request, folder, filename string) error {
	f, info, err := h.fileStore.Open(folder, filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": info.Name(),
	}))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}
