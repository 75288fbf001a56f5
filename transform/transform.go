// Package transform is the facade in front of the bundle pipeline: it owns
// archive byte access, validates the caller-supplied creative metadata, and
// memoizes the converted bundle so repeated payload requests for the same
// upload avoid re-ingesting the archive.
package transform

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/gaurav-prasanna/adpipe/core"
	"github.com/gaurav-prasanna/adpipe/core/bundle"
	"github.com/gaurav-prasanna/adpipe/core/convert"
)

// Error reports a failed transform request: invalid metadata, or a bundle
// problem surfaced through the facade.
type Error struct {
	Msg string
	Err error
}

// NewError builds an Error with a formatted message.
func NewError(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// Transform is one conversion request over one uploaded archive.
type Transform struct {
	// ID is an opaque identifier carried into error messages and asset
	// filenames.
	ID string
	// Filename is the upload's base name, used in the default creative name.
	Filename string

	path string
	cfg  core.Config

	bundle *bundle.Bundle
}

// New creates a transform for the archive at path, allocating a fresh id.
func New(path string, cfg core.Config) *Transform {
	filename := filepath.Base(path)
	return &Transform{
		ID:       NewID(filename),
		Filename: filename,
		path:     path,
		cfg:      cfg.WithDefaults(),
	}
}

// NewID derives an opaque, URL-safe transform identifier.
func NewID(filename string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s%d", filename, time.Now().UnixNano())))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum[:]), "=")
}

// Bundle returns the ingested and converted bundle, building it on first
// use. The memoized bundle lives as long as the transform; the pipeline
// itself keeps no cross-request state.
func (t *Transform) Bundle() (*bundle.Bundle, error) {
	if t.bundle != nil {
		return t.bundle, nil
	}
	r, size, err := t.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b, err := bundle.FromZip(t.ID, r, size, t.cfg)
	if err != nil {
		return nil, &Error{Msg: fmt.Sprintf("cannot transform the bundle: %v", err), Err: err}
	}
	if err := b.Transform(convert.Converters(b)); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("cannot transform the bundle: %v", err), Err: err}
	}
	t.bundle = b
	return b, nil
}

// open returns a fresh handle on the archive bytes. Ingestion and payload
// assembly each take their own handle; both see the same entries.
func (t *Transform) open() (*os.File, int64, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, 0, &Error{Msg: fmt.Sprintf("cannot open bundle %s: %v", t.path, err), Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, &Error{Msg: fmt.Sprintf("cannot stat bundle %s: %v", t.path, err), Err: err}
	}
	return f, info.Size(), nil
}

// GetCreative validates the metadata fields and returns the complete API
// payload for the named snippet.
//
// advertiserID must parse as an integer, size as "WIDTHxHEIGHT" with
// positive integers, and destURL must carry both a scheme and a host.
// creativeName is tag-stripped; when empty a name is generated from the
// upload filename and the transform id.
func (t *Transform) GetCreative(snippetName, advertiserID, destURL, size, creativeName string) (*core.Creative, error) {
	advertiser, err := strconv.ParseInt(advertiserID, 10, 64)
	if err != nil {
		return nil, NewError("invalid advertiser id '%s'", advertiserID)
	}
	width, height, err := parseSize(size)
	if err != nil {
		return nil, NewError("invalid size '%s'", size)
	}
	u, err := url.Parse(destURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, NewError("incorrect URL '%s'", destURL)
	}

	b, err := t.Bundle()
	if err != nil {
		return nil, err
	}
	r, archiveSize, err := t.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	part, err := b.CreativePart(r, archiveSize, snippetName)
	if err != nil {
		return nil, &Error{Msg: err.Error(), Err: err}
	}

	name := creativeName
	if name != "" {
		name = stripTags(name)
	} else {
		name = fmt.Sprintf("X5 %s %s", t.Filename, t.ID)
	}

	return &core.Creative{
		CreativePart:   *part,
		XSIType:        "CustomCreative",
		Name:           name,
		AdvertiserID:   advertiser,
		Size:           core.CreativeSize{Width: width, Height: height},
		DestinationURL: destURL,
	}, nil
}

// parseSize parses "WIDTHxHEIGHT" with positive integers.
func parseSize(size string) (int, int, error) {
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return 0, 0, fmt.Errorf("missing separator in %q", size)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, err
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, err
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("non-positive dimension in %q", size)
	}
	return width, height, nil
}

var tagStripPolicy = bluemonday.StrictPolicy()

// stripTags reduces operator-supplied HTML to its text content.
func stripTags(s string) string {
	return html.UnescapeString(tagStripPolicy.Sanitize(s))
}
