// Package staticfile decides which files under the web root are eligible
// for serving and maps request paths onto the filesystem.
package staticfile

import (
	"path/filepath"
	"strings"
)

// allowedTypes is the fixed serving allow-list: extension to MIME type.
// Anything outside this set is refused by the connection handler.
var allowedTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

const octetStreamMimeType = "application/octet-stream"

// Resolve turns a requested URL path into a filesystem path under the
// web root by stripping the leading separator and joining. It performs no
// symlink resolution; traversal defense is the handler's substring check
// on the raw path, applied before Resolve is ever called.
func Resolve(root, requestPath string) string {
	return filepath.Join(root, strings.TrimPrefix(requestPath, "/"))
}

// IsAllowed reports whether a file extension (including the leading dot)
// is eligible for serving.
func IsAllowed(ext string) bool {
	_, ok := allowedTypes[strings.ToLower(ext)]
	return ok
}

// MimeType returns the MIME type for a file extension. Extensions outside
// the allow-list get the generic octet-stream fallback, so the lookup
// stays usable for callers that bypass the allow check.
func MimeType(ext string) string {
	if mt, ok := allowedTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return octetStreamMimeType
}
