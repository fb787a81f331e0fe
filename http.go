package folders

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alioygur/gores"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var templates embed.FS

type HTTPService struct {
	sessionStore *sessions.CookieStore
	fileStore    *FolderStore
	shares       *ShareSigner
	templates    *template.Template
	config       *Config
}

func NewHTTPService(config *Config, fileStore *FolderStore) *HTTPService {
	return &HTTPService{
		sessionStore: newSessionStore(config.SecretKey, config.SecureCookies),
		fileStore:    fileStore,
		shares:       NewShareSigner(config.SecretKey, config.ShareTTL),
		templates:    template.Must(template.ParseFS(templates, "templates/*.html")),
		config:       config,
	}
}

func (h *HTTPService) String() string {
	return "http"
}

// url builds an absolute path below the URL prefix, escaping each element.
func (h *HTTPService) url(elems ...string) string {
	escaped := make([]string, len(elems))
	for i, e := range elems {
		escaped[i] = url.PathEscape(e)
	}
	return h.config.URLPrefix + "/" + strings.Join(escaped, "/")
}

func (h *HTTPService) absoluteURL(r *http.Request, path string) string {
	if h.config.PublicURL != "" {
		return h.config.PublicURL + path
	}

	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, path)
}

func requestLogger() func(http.Handler) http.Handler {
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logrus.StandardLogger(),
		NoColor: true,
	})
}

func (h *HTTPService) router() http.Handler {
	rtr := chi.NewRouter()
	rtr.Use(middleware.RealIP)
	rtr.Use(middleware.RequestID)
	rtr.Use(requestLogger())
	rtr.Use(middleware.Recoverer)
	rtr.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))

	routes := func(r chi.Router) {
		r.Get("/", h.routeGetIndex)
		r.Get("/folder/{folderName}", h.routeGetFolder)
		r.Post("/upload/{folderName}", h.routePostUpload)
		r.Get("/download/{folderName}/{filename}", h.routeGetDownload)

		r.Get("/share/{folderName}/{filename}", h.routeGetShare)
		r.Get("/s/{token}", h.routeGetSharedFile)
		r.Post("/sharex/{folderName}", h.routePostSharex)
	}

	if h.config.URLPrefix == "" {
		routes(rtr)
	} else {
		rtr.Route(h.config.URLPrefix, routes)
		rtr.Get("/", h.routeGetRoot)
	}

	return rtr
}

func (h *HTTPService) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.config.Bind,
		Handler:           h.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	logrus.WithFields(logrus.Fields{
		"bind":   h.config.Bind,
		"prefix": h.config.URLPrefix + "/",
		"base":   h.config.BaseDirectory,
	}).Info("http service started")

	select {
	case err := <-errc:
		return fmt.Errorf("listen on %s: %w", h.config.Bind, err)
	case <-ctx.Done():
	}

	logrus.Info("shutting down http service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// routeParam returns a decoded route parameter. chi matches on RawPath when
// the request has one, and only then is the parameter still escaped.
func routeParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

func (h *HTTPService) folderParam(r *http.Request) (string, bool) {
	name, err := routeParam(r, "folderName")
	if err != nil {
		return "", false
	}
	return name, true
}

func (h *HTTPService) pathParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	folder, ok := h.folderParam(r)
	if !ok {
		ErrorResponse(w, ErrNotFound)
		return "", "", false
	}
	filename, err := routeParam(r, "filename")
	if err != nil {
		ErrorResponse(w, ErrNotFound)
		return "", "", false
	}
	return folder, filename, true
}

// handleFolderError sends the user back to the folder list for the errors a
// folder lookup can produce.
func (h *HTTPService) handleFolderError(w http.ResponseWriter, r *http.Request, folder string, err error) {
	switch {
	case errors.Is(err, ErrAccessDenied):
		h.redirectWithFlash(w, r, h.url(), FlashDanger, "Access denied")
	case errors.Is(err, ErrNotFound):
		h.redirectWithFlash(w, r, h.url(), FlashDanger, fmt.Sprintf("Folder %s not found", folder))
	default:
		ErrorResponse(w, err)
	}
}

func (h *HTTPService) routeGetRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.url(), http.StatusFound)
}

func (h *HTTPService) routeGetIndex(w http.ResponseWriter, r *http.Request) {
	folders, err := h.fileStore.Folders()
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	for _, folder := range folders {
		stats, err := h.fileStore.Stats(folder.Name)
		if err != nil {
			logrus.WithError(err).WithField("folder", folder.Name).Warn("failed to compute folder stats")
			continue
		}
		folder.Stats = stats
	}

	h.template(w, r, "index.html", map[string]interface{}{
		"Title":        "Folders",
		"Folders":      folders,
		"Unrestricted": h.config.Unrestricted(),
		"Prefixes":     h.config.FolderPrefixes,
		"FolderURL": func(name string) string {
			return h.url("folder", name)
		},
	})
}

func (h *HTTPService) routeGetFolder(w http.ResponseWriter, r *http.Request) {
	folder, ok := h.folderParam(r)
	if !ok {
		h.handleFolderError(w, r, chi.URLParam(r, "folderName"), ErrNotFound)
		return
	}

	entries, err := h.fileStore.Entries(folder)
	if err != nil {
		h.handleFolderError(w, r, folder, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	shown := filterEntries(entries, query)

	h.template(w, r, "folder.html", map[string]interface{}{
		"Title":      folder,
		"FolderName": folder,
		"Entries":    shown,
		"Total":      len(entries),
		"Query":      query,
		"UploadURL":  h.url("upload", folder),
		"FolderURL":  h.url("folder", folder),
		"DownloadURL": func(name string) string {
			return h.url("download", folder, name)
		},
		"ShareURL": func(name string) string {
			return h.url("share", folder, name)
		},
	})
}

func (h *HTTPService) template(w http.ResponseWriter, r *http.Request, templateName string, data map[string]interface{}) {
	data["Flashes"] = h.takeFlashes(w, r)
	data["IndexURL"] = h.url()

	var buf bytes.Buffer
	err := h.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		gores.Error(w, http.StatusInternalServerError, fmt.Sprintf("Error rendering template: %v", err))
		return
	}

	gores.HTML(w, http.StatusOK, buf.String())
}
