package core

import (
	"mime"
	"path"
	"strings"
)

// Mimetype policy for bundle members. The mimetype is guessed from the file
// extension alone; an empty string means the extension is unrecognized.
var (
	snippetMimetypes = map[string]bool{
		"text/html": true,
	}
	scriptMimetypes = map[string]bool{
		"application/javascript":   true,
		"application/x-javascript": true,
		"text/javascript":          true,
	}
	inlineableMimetypes = map[string]bool{
		"text/css":                 true,
		"text/html":                true,
		"text/plain":               true,
		"application/javascript":   true,
		"application/x-javascript": true,
		"text/javascript":          true,
	}
	unsupportedMimetypes = map[string]bool{
		"image/svg+xml": true,
	}
)

// extraTypes covers extensions the stdlib mime table may not know on a
// minimal system, so ingestion stays deterministic across hosts.
var extraTypes = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".css":  "text/css",
	".htm":  "text/html",
	".html": "text/html",
}

// GuessMimetype guesses a mimetype from a filename's extension, with any
// parameters (e.g. "; charset=utf-8") stripped. Returns "" if unrecognized.
func GuessMimetype(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		mt = extraTypes[ext]
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// IsSnippetMimetype reports whether a mimetype marks an HTML entry point.
func IsSnippetMimetype(mt string) bool { return snippetMimetypes[mt] }

// IsInlineableMimetype reports whether content of this mimetype may be
// rewritten and embedded rather than served as a separate file.
func IsInlineableMimetype(mt string) bool { return inlineableMimetypes[mt] }

// Resource is the base of the two bundle member variants, Snippet and Asset.
type Resource struct {
	// ID is the macro placeholder key: extension uppercased plus a
	// per-extension running counter, e.g. the third .js file is JS3.
	ID string
	// Name is the archive-relative path, byte-exact as stored.
	Name string
	// Size is the byte length declared in the archive directory entry.
	Size int64
	// Mimetype guessed from the extension; "" if unrecognized.
	Mimetype string
	// Content holds the original bytes. Loaded eagerly for snippets and
	// inlineable assets; nil otherwise until payload assembly streams the
	// bytes from a reopened archive.
	Content []byte
	// Assets lists the names of assets this resource references, in
	// discovery order. May contain duplicates; consumers de-duplicate.
	Assets []string

	parsedContent []byte
	converted     bool
}

// Root returns the directory part of the resource name, "" for a top-level
// entry.
func (r *Resource) Root() string {
	if i := strings.LastIndexByte(r.Name, '/'); i >= 0 {
		return r.Name[:i]
	}
	return ""
}

// Basename returns the file part of the resource name.
func (r *Resource) Basename() string {
	if i := strings.LastIndexByte(r.Name, '/'); i >= 0 {
		return r.Name[i+1:]
	}
	return r.Name
}

// ParsedContent returns the rewritten bytes, nil if not converted yet.
func (r *Resource) ParsedContent() []byte { return r.parsedContent }

// SetParsedContent stores the rewritten bytes and marks the resource
// converted. Script and HTML content additionally passes through the
// modulo-operator escape. The converted flag is monotone: it is never reset
// within a bundle's lifetime, which is what terminates recursive inlining.
func (r *Resource) SetParsedContent(content []byte) {
	if scriptMimetypes[r.Mimetype] || snippetMimetypes[r.Mimetype] {
		content = EscapeModuloOp(content)
	}
	r.parsedContent = content
	r.converted = true
}

// Converted reports whether the resource has been through conversion.
func (r *Resource) Converted() bool { return r.converted }

// NameRelativeTo strips root from the resource name. Reports false when the
// name does not start with root. An empty root matches everything.
func (r *Resource) NameRelativeTo(root string) (string, bool) {
	if root == "" {
		return r.Name, true
	}
	if !strings.HasPrefix(r.Name, root) {
		return "", false
	}
	l := len(root)
	if !strings.HasSuffix(root, "/") {
		l++
	}
	if l > len(r.Name) {
		return "", false
	}
	return r.Name[l:], true
}

// Snippet is the HTML entry-point resource of a bundle.
type Snippet struct {
	Resource
	// Type is the tag of the converter that processed this snippet, set
	// only after a successful match and convert.
	Type string
}

// NewSnippet builds a snippet with eagerly loaded content.
func NewSnippet(id, name string, size int64, mimetype string, content []byte) *Snippet {
	return &Snippet{Resource: Resource{
		ID: id, Name: name, Size: size, Mimetype: mimetype, Content: content,
	}}
}

// ReferenceAssets returns the snippet's referenced asset names with
// duplicates removed, in first-reference order.
func (s *Snippet) ReferenceAssets() []string {
	return DedupeFirstSeen(s.Assets)
}

// Asset is any non-HTML bundle member.
type Asset struct {
	Resource
	sizeLimit int64
}

// NewAsset builds an asset. Content should be non-nil only for inlineable
// mimetypes; other assets stay unread until payload assembly.
func NewAsset(id, name string, size int64, mimetype string, sizeLimit int64, content []byte) *Asset {
	return &Asset{
		Resource:  Resource{ID: id, Name: name, Size: size, Mimetype: mimetype, Content: content},
		sizeLimit: sizeLimit,
	}
}

// OverLimit reports whether the declared size exceeds the configured ceiling.
func (a *Asset) OverLimit() bool { return a.Size > a.sizeLimit }

// Unsupported reports whether the mimetype is unrecognized or disallowed.
func (a *Asset) Unsupported() bool {
	return a.Mimetype == "" || unsupportedMimetypes[a.Mimetype]
}

// Inlineable reports whether the asset content may be rewritten and embedded.
func (a *Asset) Inlineable() bool { return inlineableMimetypes[a.Mimetype] }

// Inlined reports whether the asset was recursively rewritten, i.e. it is
// inlineable and itself references further assets.
func (a *Asset) Inlined() bool { return a.Inlineable() && len(a.Assets) > 0 }

// Info returns the asset's report table row.
func (a *Asset) Info() AssetInfo {
	return AssetInfo{
		Name:        a.Name,
		ID:          a.ID,
		Size:        a.Size,
		Mimetype:    a.Mimetype,
		Inlined:     a.Inlined(),
		OverLimit:   a.OverLimit(),
		Unsupported: a.Unsupported(),
	}
}

// DedupeFirstSeen returns names with duplicates removed, keeping the first
// occurrence of each so downstream ordering is deterministic.
func DedupeFirstSeen(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
