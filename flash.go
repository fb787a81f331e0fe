package folders

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
)

const sessionName = "folders-session"

const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// newSessionStore overrides the Secure default of NewCookieStore, which would
// keep flashes from ever coming back over plain http.
func newSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options.Secure = secure
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// getSession never fails: a cookie that no longer decodes, e.g. after the
// secret changed, is replaced by a fresh session.
func (h *HTTPService) getSession(r *http.Request) *sessions.Session {
	session, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		logrus.WithError(err).Debug("discarding unreadable session cookie")
	}
	return session
}

func (h *HTTPService) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session := h.getSession(r)
	session.AddFlash(Flash{Category: category, Message: message})
	err := session.Save(r, w)
	if err != nil {
		logrus.WithError(err).Warn("failed to save flash")
	}
}

// takeFlashes pops every pending flash. It must run before the response body
// is written because clearing them rewrites the cookie.
func (h *HTTPService) takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := h.getSession(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}

	err := session.Save(r, w)
	if err != nil {
		logrus.WithError(err).Warn("failed to clear flashes")
	}

	result := make([]Flash, 0, len(raw))
	for _, it := range raw {
		if flash, ok := it.(Flash); ok {
			result = append(result, flash)
		}
	}
	return result
}

func (h *HTTPService) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, category, message string) {
	h.addFlash(w, r, category, message)
	http.Redirect(w, r, target, http.StatusFound)
}
