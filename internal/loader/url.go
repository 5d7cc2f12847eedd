package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/cryguy/zero/internal/core"
)

// FileURL returns the file: URL for an absolute path. A trailing slash is
// kept, so a directory URL can serve as a resolution base.
func FileURL(path string) string {
	slash := strings.HasSuffix(path, "/")
	p := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if slash && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// DirURL returns the file: URL of a directory, with a trailing slash.
func DirURL(dir string) string {
	return FileURL(strings.TrimSuffix(dir, "/") + "/")
}

// Resolve resolves specifier against base the way a URL reference is
// resolved. Only file: URLs can be loaded.
func Resolve(base, specifier string) (*url.URL, error) {
	b, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base %q: %w", base, err)
	}
	ref, err := url.Parse(specifier)
	if err != nil {
		return nil, fmt.Errorf("parsing specifier %q: %w", specifier, err)
	}
	u := b.ResolveReference(ref)
	if u.Scheme != "file" {
		return nil, fmt.Errorf("unsupported URL scheme %q in %s: %w", u.Scheme, u, core.ErrInvalidArgument)
	}
	return u, nil
}

// PathFromURL returns the file path a file: URL names.
func PathFromURL(u *url.URL) (string, error) {
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URL: %s: %w", u, core.ErrInvalidArgument)
	}
	return filepath.FromSlash(u.Path), nil
}
