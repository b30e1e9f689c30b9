package vfs

import "strings"

// Root is the top of every owner's tree.
const Root = "/"

// SanitizePath normalizes a raw path. Empty, "." and ".." segments are
// dropped, repeated separators collapse, the trailing separator is removed
// and a leading separator is guaranteed. Empty input maps to Root.
//
// SanitizePath(SanitizePath(p)) == SanitizePath(p) for every p.
func SanitizePath(raw string) string {
	segs := Segments(raw)
	if len(segs) == 0 {
		return Root
	}
	return Root + strings.Join(segs, "/")
}

// Segments splits p into its meaningful components, skipping empty, "."
// and ".." segments.
func Segments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		switch s {
		case "", ".", "..":
			continue
		}
		out = append(out, s)
	}
	return out
}

// Join returns the full path of name inside dir. dir must be sanitized.
func Join(dir, name string) string {
	if dir == Root {
		return Root + name
	}
	return dir + "/" + name
}

// Split is the inverse of Join: it returns the parent directory and the
// final component of a sanitized path. Root splits into ("/", "").
func Split(p string) (dir, name string) {
	p = SanitizePath(p)
	if p == Root {
		return Root, ""
	}
	i := strings.LastIndexByte(p, '/')
	if i == 0 {
		return Root, p[1:]
	}
	return p[:i], p[i+1:]
}

// IsDescendant reports whether p equals ancestor or lies beneath it.
// The comparison respects segment boundaries: /home/user2 is not under
// /home/user. Both arguments must be sanitized.
func IsDescendant(p, ancestor string) bool {
	if ancestor == Root || p == ancestor {
		return true
	}
	return strings.HasPrefix(p, ancestor+"/")
}

// ValidName reports whether name can be used as a single entry name.
func ValidName(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsRune(name, '/')
}
