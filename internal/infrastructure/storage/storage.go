// Package storage holds the attachment backends. Each backend stores an
// uploaded file under a fresh random name and returns the token the event
// keeps as its image reference.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxExtLen = 8

// objectName returns "<uuid><ext>", keeping only a short alphanumeric
// extension from the client-supplied name.
func objectName(originalName string) string {
	return uuid.NewString() + safeExt(originalName)
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
