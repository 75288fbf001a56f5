package convert

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/adpipe/core"
	"github.com/gaurav-prasanna/adpipe/core/bundle"
	"github.com/gaurav-prasanna/adpipe/core/token"
)

// Edge converts creatives authored with Adobe Edge Animate. Edge bundles
// ship a minified runtime, a composition loader call in the HTML, and a
// generated JS file carrying all asset references in several quoting idioms.
type Edge struct {
	Default
}

// NewEdge creates an Edge converter bound to a bundle.
func NewEdge(b *bundle.Bundle) *Edge {
	return &Edge{Default{bundle: b}}
}

// Type returns the converter tag.
func (c *Edge) Type() string { return "edge" }

var (
	// All four structural signatures must be present; a partial match falls
	// through to the default converter.
	edgeMatchRegexp = regexp.MustCompile(
		`(?:(edge\.[0-9]\.[0-9]\.[0-9]\.min\.js)|` +
			`(<!--Adobe Edge Runtime-->)|` +
			`(AdobeEdge\.loadComposition)|` +
			`(<!--Adobe Edge Runtime End-->))`)

	edgeRuntimeRegexp = regexp.MustCompile(
		`<script\s[^>]*src="(?P<src>[^"]*(?P<name>edge\.(?P<version>[0-9.]+)\.min\.js))"[^>]*>`)

	edgeJSRegexp = regexp.MustCompile(
		`(?P<pre>AdobeEdge\.loadComposition\(')(?P<name>[^']+)(?P<post>', '[A-Za-z0-9_-]+', \{)`)

	// Hard-coded relative folder variables in the generated JS; their path
	// fragments become extra lookup roots once blanked.
	edgePathsRegexp = regexp.MustCompile(`\b(im|aud|vid|js)='([^']*?)/?'`)

	edgeWindowOpenRegexp = regexp.MustCompile(`window\.open\(['"][^'"]*['"]((?:,[^)]+)?)\)`)
)

const edgeRuntimeURL = "https://animate.adobe.com/runtime/%s/edge.%s.min.js"

var edgeClickTags = []string{
	`var clickTag="%%CLICK_URL_UNESC%%" + "%%DEST_URL_ESC%%";`,
	`var clickTarget="_blank";`,
}

// Match succeeds only when every Edge signature fires at least once.
func (c *Edge) Match(snippet *core.Snippet) bool {
	return token.AllGroupsMatch(edgeMatchRegexp, string(snippet.Content))
}

// edgeRuntime describes the runtime script reference found in the snippet.
type edgeRuntime struct {
	src     string
	name    string
	version string
}

// edgeJSLoc locates the composition loader call inside the snippet content.
type edgeJSLoc struct {
	start, end int
	pre, post  string
}

// Convert rewrites the snippet to load the runtime from the public CDN and
// the generated JS through its macro placeholder, with the clickTag
// variables and the per-asset macro registry injected before the loader.
func (c *Edge) Convert(snippet *core.Snippet) error {
	content := string(snippet.Content)

	runtime, err := c.detectRuntime(content)
	if err != nil {
		return err
	}
	content = strings.ReplaceAll(content, runtime.src,
		fmt.Sprintf(edgeRuntimeURL, runtime.version, runtime.version))

	loc, jsAsset, err := c.findEdgeJS(content, snippet.Root())
	if err != nil {
		return err
	}
	snippet.Assets = append(snippet.Assets, jsAsset.Name)

	if err := c.fixEdgeJS(jsAsset, snippet.Root(), runtime.name); err != nil {
		return err
	}
	jsAsset.SetParsedContent(fixEdgeClickURL(jsAsset.ParsedContent()))

	parts := []string{
		content[:loc.start],
		"\n// start x5 injected variables",
	}
	parts = append(parts, edgeClickTags...)
	parts = append(parts, "var __x5__ = {};")
	macroVars, err := c.fixEdgeJSAssets(jsAsset, snippet)
	if err != nil {
		return err
	}
	parts = append(parts, macroVars...)
	parts = append(parts,
		"// end x5 injected variables\n",
		"// Firefox and IE rendering latency remover\n",
		"AdobeEdge.yepnope.errorTimeout = 5e2;\n\n",
		loc.pre+core.Macro(jsAsset.ID, "")+"&_="+loc.post,
		content[loc.end:],
	)
	snippet.SetParsedContent([]byte(strings.Join(parts, "\n")))
	return nil
}

// detectRuntime finds the runtime script reference and its version string.
func (c *Edge) detectRuntime(content string) (edgeRuntime, error) {
	m := edgeRuntimeRegexp.FindStringSubmatch(content)
	if m == nil {
		return edgeRuntime{}, core.NewConverterError(c.bundle.TransformID,
			"Edge detected but no runtime found")
	}
	return edgeRuntime{
		src:     m[edgeRuntimeRegexp.SubexpIndex("src")],
		name:    m[edgeRuntimeRegexp.SubexpIndex("name")],
		version: m[edgeRuntimeRegexp.SubexpIndex("version")],
	}, nil
}

// findEdgeJS locates the composition loader call and resolves the generated
// JS asset it names.
func (c *Edge) findEdgeJS(content, root string) (edgeJSLoc, *core.Asset, error) {
	m := edgeJSRegexp.FindStringSubmatchIndex(content)
	if m == nil {
		return edgeJSLoc{}, nil, core.NewConverterError(c.bundle.TransformID,
			"Edge detected but no js found")
	}
	group := func(name string) string {
		i := edgeJSRegexp.SubexpIndex(name)
		return content[m[2*i]:m[2*i+1]]
	}
	jsName := token.PercentDecode(group("name") + "_edge.js")
	assets := c.bundle.AssetsRelativeTo(root)
	jsAsset, ok := assets[jsName]
	if !ok {
		return edgeJSLoc{}, nil, core.NewConverterError(c.bundle.TransformID,
			"Edge detected but no js asset found")
	}
	return edgeJSLoc{
		start: m[0],
		end:   m[1],
		pre:   group("pre"),
		post:  group("post"),
	}, jsAsset, nil
}

// fixEdgeJS blanks the hard-coded folder variables in the generated JS,
// collecting their path fragments as extra lookup roots, then rewrites every
// asset reference with two characters of quoting context preserved on each
// side. The runtime itself is excluded from matching.
func (c *Edge) fixEdgeJS(jsAsset *core.Asset, snippetRoot, runtimeName string) error {
	jsContent := string(jsAsset.Content)

	roots := []string{}
	for _, m := range edgePathsRegexp.FindAllStringSubmatch(jsContent, -1) {
		if m[2] != "" {
			roots = append(roots, path.Join(snippetRoot, m[2]))
		}
	}
	roots = append(roots, snippetRoot)
	jsAsset.Content = []byte(edgePathsRegexp.ReplaceAllString(jsContent, "$1=''"))

	assets := c.bundle.AssetsRelativeTo(roots...)
	names := make([]string, 0, len(assets))
	for name := range assets {
		if strings.HasSuffix(name, runtimeName) {
			continue
		}
		names = append(names, name)
	}
	re, err := token.RegexpQuoted(names, ".{2}%s.{2}")
	if err != nil {
		return err
	}
	rewritten := re.ReplaceAllStringFunc(string(jsAsset.Content), func(match string) string {
		return edgeReplace(jsAsset, assets, match)
	})
	jsAsset.SetParsedContent([]byte(rewritten))
	return nil
}

// edgeReplace substitutes one matched asset reference, re-emitting the
// surrounding quoting characters around a macro registry variable. Minified
// Edge JS quotes the same string literal several ways, hence the cases.
func edgeReplace(jsAsset *core.Asset, assets map[string]*core.Asset, match string) string {
	name := match
	if strings.Contains(name, "%") {
		name = token.PercentDecode(name)
	}
	if len(name) < 5 {
		return match
	}
	asset, ok := assets[name[2:len(name)-2]]
	if !ok {
		return match
	}
	jsAsset.Assets = append(jsAsset.Assets, asset.Name)
	switch {
	case strings.HasPrefix(name, `\"`) || strings.HasPrefix(name, `\'`):
		// A backslash-escaped quote straddling a concatenation boundary,
		// e.g. '<a href=\"asset.name\">': close the string, concatenate the
		// macro variable, reopen the string.
		return "' + __x5__.macro_" + asset.ID + " + '"
	case name[1] == '"' || name[1] == '\'':
		// e.g. var g23=["']970x90.jpg["'],
		return name[:1] + "__x5__.macro_" + asset.ID + name[len(name)-1:]
	default:
		return name[:2] + "__x5__.macro_" + asset.ID + name[len(name)-2:]
	}
}

// fixEdgeClickURL rewrites clickthrough calls of the form
// window.open(<literal-url>, ...) to use the standard clickTag variable,
// preserving any trailing argument list.
func fixEdgeClickURL(content []byte) []byte {
	return edgeWindowOpenRegexp.ReplaceAll(content, []byte("window.open(clickTag$1)"))
}

// fixEdgeJSAssets attributes the generated JS's references to the snippet,
// inlines the inlineable ones, and returns one macro registry assignment per
// referenced asset. The generated JS's own reference list is cleared; the
// snippet carries the flattened set from here on.
func (c *Edge) fixEdgeJSAssets(jsAsset *core.Asset, snippet *core.Snippet) ([]string, error) {
	var macroVars []string
	for _, name := range core.DedupeFirstSeen(jsAsset.Assets) {
		asset := c.bundle.Asset(name)
		if asset == nil {
			continue
		}
		snippet.Assets = append(snippet.Assets, name)
		macroVars = append(macroVars,
			fmt.Sprintf(`__x5__.macro_%s = "%s";`, asset.ID, core.Macro(asset.ID, "")))
		if !asset.Inlineable() {
			continue
		}
		if err := c.rewrite(&asset.Resource, &snippet.Resource, ""); err != nil {
			return nil, err
		}
	}
	jsAsset.Assets = nil
	return macroVars, nil
}
