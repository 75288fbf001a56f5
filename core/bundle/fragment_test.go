package bundle

import (
	"strings"
	"testing"

	"github.com/gaurav-prasanna/adpipe/core"
)

func convertedSnippet(content string) *core.Snippet {
	s := core.NewSnippet("HTML1", "index.html", int64(len(content)), "text/html", []byte(content))
	s.SetParsedContent([]byte(content))
	return s
}

func TestHTMLFragment(t *testing.T) {
	s := convertedSnippet(`<html><head>
<meta charset="utf-8">
<title>banner</title>
<link rel="stylesheet" href="%%FILE:CSS1%%">
<script src="%%FILE:JS1%%"></script>
</head><body><div id="stage"><img src="%%FILE:PNG1%%"></div></body></html>`)

	got := HTMLFragment(s)

	if !strings.HasPrefix(got, clickTrackingReminder) {
		t.Errorf("fragment should start with the review reminder:\n%s", got)
	}
	// Head content survives except meta and title.
	if strings.Contains(got, "<meta") || strings.Contains(got, "<title") {
		t.Errorf("meta/title should be dropped:\n%s", got)
	}
	for _, want := range []string{"%%FILE:CSS1%%", "%%FILE:JS1%%", "%%FILE:PNG1%%", `<div id="stage">`} {
		if !strings.Contains(got, want) {
			t.Errorf("fragment missing %q:\n%s", want, got)
		}
	}
	// Only the body's inner HTML is kept.
	if strings.Contains(got, "<body") || strings.Contains(got, "<html") {
		t.Errorf("document scaffolding should be dropped:\n%s", got)
	}
}

func TestHTMLFragmentBareContent(t *testing.T) {
	// Content without document scaffolding still yields the reminder plus
	// the content itself.
	s := convertedSnippet(`<p>just a fragment</p>`)
	got := HTMLFragment(s)
	if !strings.HasPrefix(got, clickTrackingReminder) {
		t.Errorf("fragment should start with the review reminder:\n%s", got)
	}
	if !strings.Contains(got, "<p>just a fragment</p>") {
		t.Errorf("fragment content missing:\n%s", got)
	}
}

func TestHTMLFragmentUnconverted(t *testing.T) {
	s := core.NewSnippet("HTML1", "index.html", 0, "text/html", []byte("<html></html>"))
	if got := HTMLFragment(s); got != "" {
		t.Errorf("unconverted snippet fragment = %q, want empty", got)
	}
}
