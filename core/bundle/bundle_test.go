package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/adpipe/core"
)

type zipEntry struct {
	name string
	data string
}

func buildZip(t *testing.T, entries []zipEntry) (*bytes.Reader, int64) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.data)); err != nil {
			t.Fatalf("writing zip entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes()), int64(buf.Len())
}

func TestFromZipClassification(t *testing.T) {
	r, size := buildZip(t, []zipEntry{
		{"index.html", "<html></html>"},
		{"style.css", "body{}"},
		{"img/", ""},
		{"img/logo.png", "PNGDATA"},
		{"img/photo.jpg", "JPGDATA"},
		{"__MACOSX/index.html", "junk"},
		{".DS_Store", "junk"},
		{"img/.hidden.png", "junk"},
		{"Thumbs.db", "junk"},
		{"README", "no extension"},
	})
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	if got, want := b.SnippetNames(), []string{"index.html"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SnippetNames = %v, want %v", got, want)
	}
	wantAssets := []string{"style.css", "img/logo.png", "img/photo.jpg"}
	if got := b.AssetNames(); !reflect.DeepEqual(got, wantAssets) {
		t.Errorf("AssetNames = %v, want %v", got, wantAssets)
	}

	snippet := b.Snippet("index.html")
	if snippet.ID != "HTML1" {
		t.Errorf("snippet id = %q, want HTML1", snippet.ID)
	}
	if string(snippet.Content) != "<html></html>" {
		t.Errorf("snippet content not loaded: %q", snippet.Content)
	}

	tests := []struct {
		name, id, mimetype string
	}{
		{"style.css", "CSS1", "text/css"},
		{"img/logo.png", "PNG1", "image/png"},
		{"img/photo.jpg", "JPG1", "image/jpeg"},
	}
	for _, tt := range tests {
		asset := b.Asset(tt.name)
		if asset == nil {
			t.Fatalf("asset %s missing", tt.name)
		}
		if asset.ID != tt.id {
			t.Errorf("asset %s id = %q, want %q", tt.name, asset.ID, tt.id)
		}
		if asset.Mimetype != tt.mimetype {
			t.Errorf("asset %s mimetype = %q, want %q", tt.name, asset.Mimetype, tt.mimetype)
		}
	}

	// Inlineable assets are loaded eagerly, binary ones are not.
	if b.Asset("style.css").Content == nil {
		t.Error("css content should be loaded at ingestion")
	}
	if b.Asset("img/logo.png").Content != nil {
		t.Error("png content should stay unread until payload assembly")
	}
}

func TestFromZipStableIDs(t *testing.T) {
	entries := []zipEntry{
		{"index.html", "<html></html>"},
		{"a.js", "x"},
		{"skipme", "no extension, no id"},
		{"b.js", "y"},
		{"img/c.png", "z"},
	}
	r1, s1 := buildZip(t, entries)
	r2, s2 := buildZip(t, entries)
	b1, err := FromZip("tid", r1, s1, core.Config{})
	if err != nil {
		t.Fatal(err)
	}
	b2, err := FromZip("tid", r2, s2, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range b1.AssetNames() {
		if got, want := b2.Asset(name).ID, b1.Asset(name).ID; got != want {
			t.Errorf("asset %s id changed across ingestions: %q vs %q", name, got, want)
		}
	}
	if b1.Asset("b.js").ID != "JS2" {
		t.Errorf("b.js id = %q, want JS2", b1.Asset("b.js").ID)
	}
}

func TestFromZipDuplicateEntry(t *testing.T) {
	r, size := buildZip(t, []zipEntry{
		{"index.html", "<html></html>"},
		{"style.css", "first"},
		{"img/x.png", "z"},
		{"style.css", "second"},
	})
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	// The later entry wins but keeps its original position, and the id
	// counter still advanced for both.
	wantOrder := []string{"style.css", "img/x.png"}
	if got := b.AssetNames(); !reflect.DeepEqual(got, wantOrder) {
		t.Errorf("AssetNames = %v, want %v", got, wantOrder)
	}
	asset := b.Asset("style.css")
	if string(asset.Content) != "second" {
		t.Errorf("duplicate content = %q, want the later entry", asset.Content)
	}
	if asset.ID != "CSS2" {
		t.Errorf("duplicate id = %q, want CSS2", asset.ID)
	}
}

func TestFromZipErrors(t *testing.T) {
	t.Run("no snippets", func(t *testing.T) {
		r, size := buildZip(t, []zipEntry{{"img/logo.png", "x"}})
		_, err := FromZip("tid", r, size, core.Config{})
		var be *core.BundleError
		if !errors.As(err, &be) {
			t.Fatalf("err = %v, want BundleError", err)
		}
		if !strings.Contains(be.Msg, "no snippets") {
			t.Errorf("Msg = %q, want no-snippets message", be.Msg)
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		data := []byte("definitely not an archive")
		_, err := FromZip("tid", bytes.NewReader(data), int64(len(data)), core.Config{})
		var be *core.BundleError
		if !errors.As(err, &be) {
			t.Fatalf("err = %v, want BundleError", err)
		}
	})

	t.Run("archive too large", func(t *testing.T) {
		r, size := buildZip(t, []zipEntry{{"index.html", "<html></html>"}})
		_, err := FromZip("tid", r, size, core.Config{MaxArchiveSize: 8})
		if err == nil || !strings.Contains(err.Error(), "too large") {
			t.Errorf("err = %v, want size rejection", err)
		}
	})
}

// recordingConverter is a stub that matches on demand and records calls.
type recordingConverter struct {
	tag       string
	match     func(*core.Snippet) bool
	converted []string
	fail      error
}

func (c *recordingConverter) Type() string { return c.tag }

func (c *recordingConverter) Match(s *core.Snippet) bool { return c.match(s) }

func (c *recordingConverter) Convert(s *core.Snippet) error {
	if c.fail != nil {
		return c.fail
	}
	c.converted = append(c.converted, s.Name)
	s.SetParsedContent(s.Content)
	return nil
}

func TestTransformSelectsFirstMatch(t *testing.T) {
	r, size := buildZip(t, []zipEntry{
		{"index.html", "<html>special</html>"},
		{"plain.html", "<html>plain</html>"},
		{"img/logo.png", "x"},
	})
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	special := &recordingConverter{
		tag:   "special",
		match: func(s *core.Snippet) bool { return bytes.Contains(s.Content, []byte("special")) },
	}
	fallthru := &recordingConverter{
		tag:   "default",
		match: func(*core.Snippet) bool { return true },
	}
	if err := b.Transform([]core.Converter{special, fallthru}); err != nil {
		t.Fatal(err)
	}

	if got, want := special.converted, []string{"index.html"}; !reflect.DeepEqual(got, want) {
		t.Errorf("special converted %v, want %v", got, want)
	}
	if got, want := fallthru.converted, []string{"plain.html"}; !reflect.DeepEqual(got, want) {
		t.Errorf("default converted %v, want %v", got, want)
	}
	if got := b.Snippet("index.html").Type; got != "special" {
		t.Errorf("snippet type = %q, want special", got)
	}
	if got := b.Snippet("plain.html").Type; got != "default" {
		t.Errorf("snippet type = %q, want default", got)
	}
}

func TestTransformNoUsableAssets(t *testing.T) {
	tests := []struct {
		name    string
		entries []zipEntry
	}{
		{"svg only", []zipEntry{
			{"index.html", "<html></html>"},
			{"icon.svg", "<svg/>"},
		}},
		{"unknown extension only", []zipEntry{
			{"index.html", "<html></html>"},
			{"blob.xyz123", "x"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, size := buildZip(t, tt.entries)
			b, err := FromZip("tid", r, size, core.Config{})
			if err != nil {
				t.Fatal(err)
			}
			conv := &recordingConverter{tag: "default", match: func(*core.Snippet) bool { return true }}
			err = b.Transform([]core.Converter{conv})
			if err == nil || !strings.Contains(err.Error(), "no assets") {
				t.Errorf("Transform err = %v, want no-assets rejection", err)
			}
		})
	}
}

func TestTransformConverterFailure(t *testing.T) {
	r, size := buildZip(t, []zipEntry{
		{"index.html", "<html></html>"},
		{"img/logo.png", "x"},
	})
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	boom := core.NewConverterError("tid", "structure missing")
	conv := &recordingConverter{tag: "broken", match: func(*core.Snippet) bool { return true }, fail: boom}
	err = b.Transform([]core.Converter{conv})
	if err == nil {
		t.Fatal("expected conversion failure to propagate")
	}
	var ce *core.ConverterError
	if !errors.As(err, &ce) {
		t.Errorf("err = %v, should wrap the converter error", err)
	}
}

func TestAssetsRelativeTo(t *testing.T) {
	r, size := buildZip(t, []zipEntry{
		{"index.html", "<html></html>"},
		{"page/img/x.png", "x"},
		{"page/style.css", "c"},
		{"z.png", "z"},
	})
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	got := b.AssetsRelativeTo("page")
	if len(got) != 2 {
		t.Fatalf("AssetsRelativeTo(page) has %d entries, want 2", len(got))
	}
	if got["img/x.png"] == nil || got["style.css"] == nil {
		t.Errorf("AssetsRelativeTo(page) keys = %v", keysOf(got))
	}

	// Roots are tried in order; the first prefix match wins.
	got = b.AssetsRelativeTo("page/img", "")
	if got["x.png"] == nil {
		t.Errorf("expected x.png keyed relative to page/img, got %v", keysOf(got))
	}
	if got["style.css"] != nil {
		t.Error("style.css is outside page/img and should keep its full name")
	}
	if got["page/style.css"] == nil || got["z.png"] == nil {
		t.Errorf("fallback root should keep full names, got %v", keysOf(got))
	}
}

func keysOf(m map[string]*core.Asset) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestCreativePart(t *testing.T) {
	entries := []zipEntry{
		{"index.html", `<html><body><img src="img/logo.png"></body></html>`},
		{"img/logo.png", "PNGDATA"},
		{"style.css", "body{}"},
		{"big.jpg", strings.Repeat("J", 64)},
		{"icon.svg", "<svg/>"},
	}
	r, size := buildZip(t, entries)
	cfg := core.Config{AssetSizeLimit: 32}
	b, err := FromZip("tid", r, size, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a conversion: rewritten snippet referencing each asset once,
	// the css twice to exercise de-duplication.
	snippet := b.Snippet("index.html")
	snippet.Assets = []string{"img/logo.png", "style.css", "big.jpg", "style.css", "icon.svg"}
	snippet.SetParsedContent([]byte(`<html><body><img src="%%FILE:PNG1%%"></body></html>`))
	b.Asset("style.css").SetParsedContent([]byte("body{color:red}"))

	r2, size2 := buildZip(t, entries)
	part, err := b.CreativePart(r2, size2, "index.html")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(part.HTMLSnippet, "%%FILE:PNG1%%") {
		t.Errorf("HTMLSnippet = %q, want macro placeholder", part.HTMLSnippet)
	}
	if len(part.CustomCreativeAssets) != 4 {
		t.Fatalf("%d asset descriptors, want 4", len(part.CustomCreativeAssets))
	}

	byMacro := map[string]core.CustomCreativeAsset{}
	for _, cca := range part.CustomCreativeAssets {
		if cca.XSIType != "CustomCreativeAsset" {
			t.Errorf("xsi_type = %q", cca.XSIType)
		}
		byMacro[cca.MacroName] = cca
	}

	// Binary asset streamed from the reopened archive.
	png := byMacro["PNG1"]
	if got := png.Asset.AssetByteArray; got != base64.StdEncoding.EncodeToString([]byte("PNGDATA")) {
		t.Errorf("png payload = %q", got)
	}
	if png.Asset.FileName != "PNG1-tid.png" {
		t.Errorf("png fileName = %q, want PNG1-tid.png", png.Asset.FileName)
	}

	// Inlineable asset ships its rewritten content.
	css := byMacro["CSS1"]
	if got, _ := base64.StdEncoding.DecodeString(css.Asset.AssetByteArray); string(got) != "body{color:red}" {
		t.Errorf("css payload = %q, want parsed content", got)
	}

	// Over-limit and unsupported assets ship the omission sentinel.
	sentinel := base64.StdEncoding.EncodeToString([]byte{0})
	if got := byMacro["JPG1"].Asset.AssetByteArray; got != sentinel {
		t.Errorf("over-limit payload = %q, want sentinel", got)
	}
	if got := byMacro["SVG1"].Asset.AssetByteArray; got != sentinel {
		t.Errorf("unsupported payload = %q, want sentinel", got)
	}
}

func TestCreativePartErrors(t *testing.T) {
	entries := []zipEntry{
		{"index.html", "<html></html>"},
		{"img/logo.png", "x"},
	}
	r, size := buildZip(t, entries)
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}

	r2, size2 := buildZip(t, entries)
	if _, err := b.CreativePart(r2, size2, "missing.html"); err == nil {
		t.Error("expected error for unknown snippet name")
	}

	b.Snippet("index.html").Assets = []string{"ghost.png"}
	r3, size3 := buildZip(t, entries)
	if _, err := b.CreativePart(r3, size3, "index.html"); err == nil {
		t.Error("expected error for reference to unknown asset")
	}
}

func TestAssetTable(t *testing.T) {
	r, size := buildZip(t, []zipEntry{
		{"index.html", "<html></html>"},
		{"style.css", "body{}"},
		{"img/logo.png", "x"},
	})
	b, err := FromZip("tid", r, size, core.Config{})
	if err != nil {
		t.Fatal(err)
	}
	snippet := b.Snippet("index.html")
	snippet.Assets = []string{"img/logo.png", "style.css", "img/logo.png"}

	rows, err := b.AssetTable("index.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("%d rows, want 2", len(rows))
	}
	if rows[0].Name != "img/logo.png" || rows[1].Name != "style.css" {
		t.Errorf("rows out of first-reference order: %v", rows)
	}
	if rows[0].ID != "PNG1" {
		t.Errorf("row id = %q, want PNG1", rows[0].ID)
	}

	if _, err := b.AssetTable("nope.html"); err == nil {
		t.Error("expected error for unknown snippet")
	}
}
