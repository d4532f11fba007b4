package graph

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver maps import specifiers to canonical module keys. A canonical key
// is an absolute filesystem path carrying a .js suffix; two specifiers that
// resolve to the same key denote the same module. The zero working directory
// is invalid; use NewResolver.
type Resolver struct {
	cwd string
}

// NewResolver builds a Resolver that computes bundle-relative keys against
// cwd (the process working directory of the bundle call).
func NewResolver(cwd string) *Resolver {
	return &Resolver{cwd: filepath.Clean(cwd)}
}

// Classify reports whether a specifier names a local file or an external
// module. Local specifiers begin with "./", "../", or "/"; everything else
// is left to the host module system.
func Classify(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}

// Resolve joins a local specifier against the directory of the importing
// module's canonical key, appends ".js" when the suffix is missing, and
// canonicalizes. importerKey must itself be canonical (absolute). No
// directory lookup or index.js expansion is performed.
func (r *Resolver) Resolve(importerKey, specifier string) (string, error) {
	var joined string
	if strings.HasPrefix(specifier, "/") {
		joined = specifier
	} else {
		joined = filepath.Join(filepath.Dir(importerKey), specifier)
	}
	if !strings.HasSuffix(joined, ".js") {
		joined += ".js"
	}
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", &ResolveError{Importer: importerKey, Specifier: specifier, Err: err}
	}
	return abs, nil
}

// EntryKey canonicalizes the entry path, which is given relative to the
// working directory rather than to an importing module.
func (r *Resolver) EntryKey(entry string) (string, error) {
	path := entry
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.cwd, path)
	}
	if !strings.HasSuffix(path, ".js") {
		path += ".js"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ResolveError{Specifier: entry, Err: err}
	}
	return abs, nil
}

// RelKey rewrites a canonical key to the "./"-prefixed working-directory
// relative form used in the emitted module table. A key outside the working
// directory keeps its leading "../" and gets no "./" prefix. Import rewrites
// use the same form so lookups in the table succeed.
func (r *Resolver) RelKey(key string) string {
	rel, err := filepath.Rel(r.cwd, key)
	if err != nil {
		// Key on another volume; the absolute form still works as a table key.
		return key
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// ResolveError reports a local import specifier that could not be joined or
// canonicalized against its importer.
type ResolveError struct {
	Importer  string
	Specifier string
	Err       error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("graph: unresolvable specifier %q in %s: %v", e.Specifier, e.Importer, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
