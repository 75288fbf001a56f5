// Package bundle owns the in-memory representation of one uploaded creative
// archive: ingestion and classification of zip entries into snippets and
// assets, path-relative asset lookup, the conversion driver, and assembly of
// the final API payload.
package bundle

import (
	"archive/zip"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gaurav-prasanna/adpipe/core"
)

// Bundle holds the classified contents of one creative archive. It is built
// once per transform, mutated in place by Transform, then read-only. It is
// not safe for concurrent use.
type Bundle struct {
	TransformID string

	snippets map[string]*core.Snippet
	assets   map[string]*core.Asset

	// Ingestion order of names, for deterministic iteration. A duplicate
	// entry name replaces the value but keeps its original position.
	snippetOrder []string
	assetOrder   []string

	// Per-extension running counters for macro id allocation.
	macroNames map[string]int

	cfg    core.Config
	logger *slog.Logger
}

// osJunkNames are archive member basenames that desktop platforms sneak into
// zip files and that never belong to a creative.
var osJunkNames = map[string]bool{
	"Thumbs.db": true,
}

// FromZip ingests a zip archive into a new bundle. The transform id is used
// only for error context. r must be positioned at the start of the archive
// bytes; re-opening the same bytes later (for payload assembly) must
// reproduce the same entries.
func FromZip(transformID string, r io.ReaderAt, size int64, cfg core.Config) (*Bundle, error) {
	cfg = cfg.WithDefaults()
	if size > cfg.MaxArchiveSize {
		return nil, core.NewBundleError(transformID,
			"archive too large: %d bytes (max %d)", size, cfg.MaxArchiveSize)
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &core.BundleError{
			TransformID: transformID,
			Msg:         fmt.Sprintf("error opening zip: %v", err),
			Err:         err,
		}
	}

	b := &Bundle{
		TransformID: transformID,
		snippets:    map[string]*core.Snippet{},
		assets:      map[string]*core.Asset{},
		macroNames:  map[string]int{},
		cfg:         cfg,
		logger:      cfg.Logger,
	}
	for _, f := range zr.File {
		name := f.Name
		if strings.HasSuffix(name, "/") {
			continue
		}
		if strings.Contains(name, "__MACOSX/") {
			continue
		}
		base := path.Base(name)
		if strings.HasPrefix(base, ".") || osJunkNames[base] {
			continue
		}
		if err := b.addMember(f); err != nil {
			return nil, &core.BundleError{
				TransformID: transformID,
				Msg:         fmt.Sprintf("error reading zip entry %s: %v", name, err),
				Err:         err,
			}
		}
	}
	if len(b.snippets) == 0 {
		return nil, core.NewBundleError(transformID, "no snippets found")
	}
	return b, nil
}

// addMember classifies one archive entry as snippet or asset and allocates
// its macro id. Entries without a file extension are skipped before any id
// is allocated, so ids stay stable across repeated ingestion.
func (b *Bundle) addMember(f *zip.File) error {
	name := f.Name
	size := int64(f.UncompressedSize64)
	mimetype := core.GuessMimetype(name)

	ext := strings.ToUpper(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return nil
	}
	b.macroNames[ext]++
	id := fmt.Sprintf("%s%d", ext, b.macroNames[ext])

	if core.IsSnippetMimetype(mimetype) {
		content, err := readEntry(f)
		if err != nil {
			return err
		}
		if _, dup := b.snippets[name]; !dup {
			b.snippetOrder = append(b.snippetOrder, name)
		}
		b.snippets[name] = core.NewSnippet(id, name, size, mimetype, content)
		return nil
	}

	// Inlineable assets are read eagerly because conversion rewrites their
	// content; everything else is streamed fresh at payload assembly.
	var content []byte
	if core.IsInlineableMimetype(mimetype) {
		var err error
		if content, err = readEntry(f); err != nil {
			return err
		}
	}
	if _, dup := b.assets[name]; !dup {
		b.assetOrder = append(b.assetOrder, name)
	}
	b.assets[name] = core.NewAsset(id, name, size, mimetype, b.cfg.AssetSizeLimit, content)
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Snippet returns the named snippet, nil if absent.
func (b *Bundle) Snippet(name string) *core.Snippet { return b.snippets[name] }

// Asset returns the named asset, nil if absent.
func (b *Bundle) Asset(name string) *core.Asset { return b.assets[name] }

// SnippetNames returns snippet names in ingestion order.
func (b *Bundle) SnippetNames() []string {
	names := make([]string, 0, len(b.snippets))
	for _, n := range b.snippetOrder {
		if _, ok := b.snippets[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// AssetNames returns asset names in ingestion order.
func (b *Bundle) AssetNames() []string {
	names := make([]string, 0, len(b.assets))
	for _, n := range b.assetOrder {
		if _, ok := b.assets[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// DeleteAsset removes an asset that no longer exists as a separate file
// (e.g. a generated script whose content was inlined into the snippet).
func (b *Bundle) DeleteAsset(name string) { delete(b.assets, name) }

// AssetsRelativeTo maps asset names relative to the given roots. For each
// asset the roots are tried in order; the first root that is a prefix of the
// asset name wins, and the asset is keyed by the root-relative remainder.
// Assets under none of the roots are omitted, which scopes reference
// matching to what a snippet can actually reach.
func (b *Bundle) AssetsRelativeTo(roots ...string) map[string]*core.Asset {
	out := map[string]*core.Asset{}
	for _, name := range b.assetOrder {
		asset, ok := b.assets[name]
		if !ok {
			continue
		}
		for _, root := range roots {
			rel, ok := asset.NameRelativeTo(root)
			if !ok {
				continue
			}
			out[rel] = asset
			break
		}
	}
	return out
}

// Transform runs the first matching converter over every snippet. The
// converter list is in priority order with the catch-all last; a converter's
// failure is fatal for the whole transform and is never retried with a
// different converter.
func (b *Bundle) Transform(converters []core.Converter) error {
	usable := 0
	for _, asset := range b.assets {
		if !asset.Unsupported() {
			usable++
		}
	}
	if usable == 0 {
		return core.NewBundleError(b.TransformID, "no assets in bundle")
	}
	for _, name := range b.SnippetNames() {
		snippet := b.snippets[name]
		for _, conv := range converters {
			if !conv.Match(snippet) {
				continue
			}
			b.logger.Debug("converting snippet",
				"transform_id", b.TransformID, "snippet", name, "converter", conv.Type())
			if err := conv.Convert(snippet); err != nil {
				b.logger.Error("conversion error",
					"transform_id", b.TransformID, "snippet", name,
					"converter", conv.Type(), "error", err)
				return &core.BundleError{
					TransformID: b.TransformID,
					Msg:         fmt.Sprintf("error converting %s: %v", name, err),
					Err:         err,
				}
			}
			snippet.Type = conv.Type()
			break
		}
	}
	return nil
}

// CreativePart assembles the API payload for the named snippet: its HTML
// fragment plus one descriptor per referenced asset. r must be a fresh view
// of the same archive bytes used for ingestion; non-inlineable asset bytes
// are streamed from it.
func (b *Bundle) CreativePart(r io.ReaderAt, size int64, snippetName string) (*core.CreativePart, error) {
	snippet, ok := b.snippets[snippetName]
	if !ok {
		return nil, core.NewBundleError(b.TransformID, "invalid snippet name or bundle not populated")
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &core.BundleError{
			TransformID: b.TransformID,
			Msg:         fmt.Sprintf("error reopening zip: %v", err),
			Err:         err,
		}
	}

	part := &core.CreativePart{
		HTMLSnippet:          HTMLFragment(snippet),
		CustomCreativeAssets: []core.CustomCreativeAsset{},
	}
	// Assets over quota are not skipped: their macro references stay in the
	// snippet, so a descriptor with the omission sentinel must still go out.
	for _, assetName := range snippet.ReferenceAssets() {
		asset, ok := b.assets[assetName]
		if !ok {
			return nil, core.NewBundleError(b.TransformID, "unknown asset %s referenced by %s", assetName, snippetName)
		}
		payload, err := b.assetPayload(zr, asset)
		if err != nil {
			return nil, &core.BundleError{
				TransformID: b.TransformID,
				Msg:         fmt.Sprintf("error reading asset %s: %v", assetName, err),
				Err:         err,
			}
		}
		part.CustomCreativeAssets = append(part.CustomCreativeAssets, core.CustomCreativeAsset{
			XSIType:   "CustomCreativeAsset",
			MacroName: asset.ID,
			Asset: core.CreativeAsset{
				AssetByteArray: base64.StdEncoding.EncodeToString(payload),
				FileName:       fmt.Sprintf("%s-%s%s", asset.ID, b.TransformID, path.Ext(asset.Name)),
			},
		})
	}
	return part, nil
}

// assetPayload returns the bytes to encode for one asset descriptor. A
// single zero byte stands for "asset intentionally omitted" under the size
// and mimetype policy; the serving platform recognizes the sentinel while
// the macro reference remains valid.
func (b *Bundle) assetPayload(zr *zip.Reader, asset *core.Asset) ([]byte, error) {
	switch {
	case asset.OverLimit() || asset.Unsupported():
		return []byte{0}, nil
	case asset.Inlineable():
		if pc := asset.ParsedContent(); pc != nil {
			return pc, nil
		}
		return asset.Content, nil
	}
	for _, f := range zr.File {
		if f.Name == asset.Name {
			return readEntry(f)
		}
	}
	return nil, fmt.Errorf("entry %s not present in reopened archive", asset.Name)
}

// AssetTable returns the report rows for the assets referenced by the named
// snippet, in first-reference order.
func (b *Bundle) AssetTable(snippetName string) ([]core.AssetInfo, error) {
	snippet, ok := b.snippets[snippetName]
	if !ok {
		return nil, core.NewBundleError(b.TransformID, "invalid snippet name or bundle not populated")
	}
	var rows []core.AssetInfo
	for _, name := range snippet.ReferenceAssets() {
		if asset, ok := b.assets[name]; ok {
			rows = append(rows, asset.Info())
		}
	}
	return rows, nil
}
