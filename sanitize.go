package folders

import (
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameLength = 255

var filenameStripRe = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM0": {}, "COM1": {}, "COM2": {}, "COM3": {}, "COM4": {},
	"COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT0": {}, "LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {},
	"LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SecureFilename reduces an uploaded file name to a flat ASCII name that is
// safe to join onto a directory. Path separators of the host OS become
// underscores, anything outside [A-Za-z0-9_.-] is dropped (including a
// backslash on POSIX) and leading/trailing dots and underscores are trimmed,
// so "../../evil.txt" becomes "evil.txt". The result may be empty.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)

	name = strings.ReplaceAll(name, "/", " ")
	if filepath.Separator != '/' {
		name = strings.ReplaceAll(name, string(filepath.Separator), " ")
	}
	name = strings.Join(strings.Fields(name), "_")
	name = filenameStripRe.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if runtime.GOOS == "windows" && name != "" {
		if _, ok := windowsDeviceNames[strings.ToUpper(strings.Split(name, ".")[0])]; ok {
			name = "_" + name
		}
	}

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) >= maxFilenameLength {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}

	return name
}

// isPathElement reports whether name is usable as exactly one path element.
func isPathElement(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
