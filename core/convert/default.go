// Package convert implements the per-authoring-tool converter strategies.
// Each strategy recognizes creatives produced by one visual tool from their
// content signature and rewrites asset references into macro placeholders;
// the default strategy matches anything and handles plain HTML bundles.
package convert

import (
	"strings"

	"github.com/gaurav-prasanna/adpipe/core"
	"github.com/gaurav-prasanna/adpipe/core/bundle"
	"github.com/gaurav-prasanna/adpipe/core/token"
)

// Converters returns the strategy set in priority order: tool-specific
// converters first, the default catch-all last.
func Converters(b *bundle.Bundle) []core.Converter {
	return []core.Converter{NewEdge(b), NewHype(b), NewDefault(b)}
}

// Default is the fallback converter for general HTML5 bundles. It replaces
// every recognizable asset path in the snippet with a macro placeholder and
// transitively rewrites the inlineable assets the snippet pulls in.
type Default struct {
	bundle *bundle.Bundle
}

// NewDefault creates a Default converter bound to a bundle.
func NewDefault(b *bundle.Bundle) *Default {
	return &Default{bundle: b}
}

// Type returns the converter tag.
func (c *Default) Type() string { return "default" }

// Match always succeeds; Default is the required catch-all.
func (c *Default) Match(*core.Snippet) bool { return true }

// Convert rewrites the snippet in place and then works through every
// inlineable asset it references.
func (c *Default) Convert(snippet *core.Snippet) error {
	if err := c.rewrite(&snippet.Resource, nil, ""); err != nil {
		return err
	}
	return c.convertReferenced(snippet)
}

// rewrite replaces asset path references in res.Content with macro
// placeholders and stores the result as parsed content. Discovered
// references are recorded on res itself and, when appendTo is given, copied
// onto it as well — nested assets report their findings upward so the
// top-level snippet's reference list stays the single source of truth for
// payload assembly.
func (c *Default) rewrite(res *core.Resource, appendTo *core.Resource, template string) error {
	assets := c.bundle.AssetsRelativeTo(res.Root())
	if len(assets) == 0 {
		res.SetParsedContent(res.Content)
		return nil
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	re, err := token.RegexpQuoted(names, "")
	if err != nil {
		return err
	}

	rewritten := re.ReplaceAllStringFunc(string(res.Content), func(match string) string {
		name := match
		if strings.Contains(name, "%") {
			name = token.PercentDecode(name)
		}
		asset, ok := assets[name]
		if !ok {
			// Reference miss: prefer a silently-unconverted reference over
			// aborting the whole creative.
			return match
		}
		res.Assets = append(res.Assets, asset.Name)
		return core.Macro(asset.ID, template)
	})
	res.SetParsedContent([]byte(rewritten))

	if appendTo != nil {
		appendTo.Assets = append(appendTo.Assets, res.Assets...)
	}
	return nil
}

// convertReferenced drains a worklist of the snippet's referenced assets,
// rewriting each inlineable one with its discoveries attributed to the
// snippet. The worklist grows as rewrites find more references; the monotone
// converted flag guarantees each asset is rewritten at most once, so the
// loop terminates.
func (c *Default) convertReferenced(snippet *core.Snippet) error {
	queue := newWorklist(snippet.Assets)
	for queue.hasNext() {
		asset := c.bundle.Asset(queue.next())
		if asset == nil || !asset.Inlineable() || asset.Converted() {
			continue
		}
		if err := c.rewrite(&asset.Resource, &snippet.Resource, ""); err != nil {
			return err
		}
		queue.addAll(snippet.Assets)
	}
	return nil
}
