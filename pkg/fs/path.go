package fs

import (
	"path"
	"strings"
)

// CleanPath normalizes a protocol-supplied path to a canonical absolute
// form: slash-separated, no trailing slash (except the root itself), no "."
// or ".." segments. Relative paths are interpreted from the root, matching
// how embedded filesystems treat them.
//
// The input comes straight off the wire, so rejection here is the only
// thing standing between a hostile frame and a backend path traversal.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "/", nil
	}
	if strings.ContainsRune(p, 0) {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	// path.Clean would silently clamp ".." at the root; an attempt to
	// climb above the root is hostile and must be rejected, so walk the
	// segments and track depth first.
	depth := 0
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", ErrInvalidPath
			}
		default:
			depth++
		}
	}
	return path.Clean(p), nil
}

// SplitPath returns the parent directory and base name of a cleaned path.
// The root has itself as parent and an empty base.
func SplitPath(p string) (dir, base string) {
	if p == "/" {
		return "/", ""
	}
	return path.Dir(p), path.Base(p)
}
