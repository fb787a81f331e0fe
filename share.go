package folders

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	goalone "github.com/bwmarrin/go-alone"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type shareClaims struct {
	Folder  string `json:"folder"`
	File    string `json:"file"`
	Expires int64  `json:"expires"`
}

// ShareSigner issues and checks stateless download tokens for single files.
type ShareSigner struct {
	signer *goalone.Sword
	ttl    time.Duration
	now    func() time.Time
}

func NewShareSigner(secret string, ttl time.Duration) *ShareSigner {
	return &ShareSigner{
		signer: goalone.New([]byte(secret)),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *ShareSigner) Sign(folder, file string) (string, time.Time, error) {
	expires := s.now().Add(s.ttl)
	data, err := json.Marshal(shareClaims{Folder: folder, File: file, Expires: expires.Unix()})
	if err != nil {
		return "", time.Time{}, err
	}
	return base64.RawURLEncoding.EncodeToString(s.signer.Sign(data)), expires, nil
}

func (s *ShareSigner) Verify(token string) (folder string, file string, err error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	raw, err := s.signer.Unsign(decoded)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	var claims shareClaims
	err = json.Unmarshal(raw, &claims)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	if s.now().Unix() > claims.Expires {
		return "", "", fmt.Errorf("token expired: %w", ErrInvalidToken)
	}

	return claims.Folder, claims.File, nil
}

func (h *HTTPService) shareLink(r *http.Request, folder, file string) (string, error) {
	token, _, err := h.shares.Sign(folder, file)
	if err != nil {
		return "", err
	}
	return h.absoluteURL(r, h.url("s", token)), nil
}

func (h *HTTPService) routeGetShare(w http.ResponseWriter, r *http.Request) {
	folder, filename, ok := h.pathParams(w, r)
	if !ok {
		return
	}

	_, err := h.fileStore.Stat(folder, filename)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			h.handleFolderError(w, r, folder, err)
			return
		}
		ErrorResponse(w, err)
		return
	}

	link, err := h.shareLink(r, folder, filename)
	if err != nil {
		ErrorResponse(w, err)
		return
	}

	h.redirectWithFlash(w, r, h.url("folder", folder), FlashSuccess,
		fmt.Sprintf("Share link for %s (valid %s): %s", filename, h.config.ShareTTL, link))
}

func (h *HTTPService) routeGetSharedFile(w http.ResponseWriter, r *http.Request) {
	folder, filename, err := h.shares.Verify(chi.URLParam(r, "token"))
	if err != nil {
		logrus.WithError(err).Debug("rejected share token")
		ErrorResponse(w, err)
		return
	}

	// the prefix list may have changed since the token was issued
	err = h.serveFile(w, r, folder, filename)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			err = ErrNotFound
		}
		ErrorResponse(w, err)
	}
}
