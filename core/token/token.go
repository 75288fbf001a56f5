// Package token provides the stateless regex helpers used to detect and
// replace asset path references inside snippet and script content. Asset
// paths appear in creatives both verbatim and percent-encoded, so every
// matcher covers both forms.
package token

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PercentEncode percent-encodes every byte outside [A-Za-z0-9_.-] and '/',
// matching the encoding browsers and authoring tools apply to asset URLs.
func PercentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '_' || c == '.' || c == '-' || c == '/' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

// PercentDecode decodes %XX escapes, leaving malformed sequences untouched.
func PercentDecode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// QuotedUnquoted returns the tokens in verbatim and percent-encoded form,
// de-duplicated, verbatim forms first in input order.
func QuotedUnquoted(tokens []string) []string {
	seen := make(map[string]bool, 2*len(tokens))
	out := make([]string, 0, 2*len(tokens))
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range tokens {
		add(t)
	}
	for _, t := range tokens {
		add(PercentEncode(t))
	}
	return out
}

// Regexp compiles a case-insensitive alternation with one capture group per
// token, for use with AllGroupsMatch.
func Regexp(tokens []string) (*regexp.Regexp, error) {
	alts := make([]string, len(tokens))
	for i, t := range tokens {
		alts[i] = "(" + regexp.QuoteMeta(t) + ")"
	}
	return regexp.Compile("(?i)(?:" + strings.Join(alts, "|") + ")")
}

// RegexpQuoted compiles an alternation matching any token, verbatim or
// percent-encoded, each alternative wrapped in format (which must contain
// one %s verb; "" means a bare token). The whole alternation is a single
// capture group. Longer tokens are tried first so a token that is a prefix
// of another never shadows it.
func RegexpQuoted(tokens []string, format string) (*regexp.Regexp, error) {
	if format == "" {
		format = "%s"
	}
	forms := QuotedUnquoted(tokens)
	// Longest first, then lexicographic: deterministic, and a token that is
	// a prefix of another never wins the alternation.
	sort.Slice(forms, func(i, j int) bool {
		if len(forms[i]) != len(forms[j]) {
			return len(forms[i]) > len(forms[j])
		}
		return forms[i] < forms[j]
	})
	alts := make([]string, len(forms))
	for i, t := range forms {
		alts[i] = fmt.Sprintf(format, regexp.QuoteMeta(t))
	}
	return regexp.Compile("(" + strings.Join(alts, "|") + ")")
}

// AllGroupsMatch reports whether every capture group of re fires at least
// once in text. Used for fuzzy content-signature detection where the
// signature parts may appear in any order.
func AllGroupsMatch(re *regexp.Regexp, text string) bool {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return false
	}
	for group := 1; group < re.NumSubexp()+1; group++ {
		found := false
		for _, m := range matches {
			if m[group] != "" {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
