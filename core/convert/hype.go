package convert

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/adpipe/core"
	"github.com/gaurav-prasanna/adpipe/core/bundle"
)

// Hype converts creatives authored with Tumult Hype. Hype bundles load a
// generated script through a cache-busted <script src> tag; the script is
// inlined into the page so its relative asset paths resolve against the
// page's own location.
type Hype struct {
	Default
}

// NewHype creates a Hype converter bound to a bundle.
func NewHype(b *bundle.Bundle) *Hype {
	return &Hype{Default{bundle: b}}
}

// Type returns the converter tag.
func (c *Hype) Type() string { return "hype" }

var (
	hypeMatchRegexp = regexp.MustCompile(
		`<script\s[^>]*src=["'][^"']+_hype_generated_script\.js\?[0-9]+["']`)

	hypeScriptRegexp = regexp.MustCompile(
		`<script\s[^>]*src=["']([^"']+_hype_generated_script\.js)(?:\?[0-9]+)?["'][^>]*/?>(?:\s*</script>)?`)

	hypeFolderVarRegexp = regexp.MustCompile(`var f\s*=\s*"[^"]+",`)
)

const hypeGeneratedSuffix = "_hype_generated_script.js"

// hypeDomainFixScript rewrites inline CSS background-image URLs at load time
// to strip absolute-origin prefixes the Hype runtime inserts. The %s is the
// composition name.
const hypeDomainFixScript = `var hypeElementContainer = '%s_hype_container';
function hypeUpdate(){
  var hypeDivElements = document.getElementById(hypeElementContainer)
      .getElementsByTagName('DIV');
  var ph = window.location.protocol + '//' + window.location.host + '/';
  for (hi=0; hi<hypeDivElements.length; hi++) {
    if (hypeDivElements[hi].style.backgroundImage.indexOf('url') > -1) {
      hypeDivElements[hi].style.backgroundImage = hypeDivElements[hi].style.backgroundImage.replace('url("/', 'url("').replace(ph, '')
    }
  }
}
onload=hypeUpdate;
`

// Match succeeds on a script tag whose source ends in the generated-script
// suffix with a cache-busting query string.
func (c *Hype) Match(snippet *core.Snippet) bool {
	return hypeMatchRegexp.Match(snippet.Content)
}

// Convert removes the generated-script tag, inlines the generated JS plus
// the domain-fix script directly before </body>, deletes the JS asset from
// the bundle (it no longer exists as a separate file), and finishes with the
// default conversion over the modified snippet.
func (c *Hype) Convert(snippet *core.Snippet) error {
	content := string(snippet.Content)

	m := hypeScriptRegexp.FindStringSubmatchIndex(content)
	if m == nil {
		return core.NewConverterError(c.bundle.TransformID, "Hype script tag not found")
	}
	assetName := path.Base(content[m[2]:m[3]])
	asset := c.bundle.Asset(assetName)
	if asset == nil {
		return core.NewConverterError(c.bundle.TransformID, "Hype script %s not found", assetName)
	}

	hypeContent := string(asset.Content)
	hypeContent = hypeFolderVarRegexp.ReplaceAllString(hypeContent, `var f="",`)
	domainFix := fmt.Sprintf(hypeDomainFixScript,
		strings.ReplaceAll(assetName, hypeGeneratedSuffix, ""))

	content = content[:m[0]] + content[m[1]:]
	content = strings.ReplaceAll(content, "</body>",
		fmt.Sprintf("<script>\n%s\n%s\n</script>\n</body>", hypeContent, domainFix))

	snippet.Content = []byte(content)
	c.bundle.DeleteAsset(assetName)

	return c.Default.Convert(snippet)
}
