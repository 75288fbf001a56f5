package bundle

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/adpipe/core"
)

// clickTrackingReminder is emitted verbatim at the top of every assembled
// fragment so the operator reviewing the creative checks for the macro.
const clickTrackingReminder = "<!-- Please make sure you review the creative " +
	"and that it contains the clicktracking macro -->"

// HTMLFragment reduces a converted snippet to the fragment the creative API
// accepts: the review reminder comment, the head children worth keeping
// (everything except <meta> and <title>), then the inner HTML of <body>.
// Content that does not parse into a document with a body degrades to the
// rewritten content unchanged; an unconverted snippet yields "".
func HTMLFragment(snippet *core.Snippet) string {
	parsed := snippet.ParsedContent()
	if len(parsed) == 0 {
		return ""
	}
	content := string(parsed)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	var buf strings.Builder
	buf.WriteString(clickTrackingReminder)
	doc.Find("head").First().Children().Each(func(_ int, el *goquery.Selection) {
		switch goquery.NodeName(el) {
		case "meta", "title":
			return
		}
		if h, err := goquery.OuterHtml(el); err == nil {
			buf.WriteString(h)
		}
	})

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return content
	}
	inner, err := body.Html()
	if err != nil {
		return content
	}
	buf.WriteString(inner)
	return buf.String()
}
