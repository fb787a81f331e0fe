package folders

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// copyWithHash copies src into dst and returns the byte count and the hex
// sha256 of everything copied.
func copyWithHash(dst io.Writer, src io.Reader) (int64, string, error) {
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, h), src)
	if err != nil {
		return n, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
