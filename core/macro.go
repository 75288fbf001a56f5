package core

import (
	"fmt"
	"regexp"
)

// MacroTemplate is the placeholder the serving platform substitutes with the
// asset's serving URL at delivery time. The %s is the asset id.
const MacroTemplate = "%%%%FILE:%s%%%%"

// Macro returns the placeholder for an asset id, using template when given
// (template must contain one %s verb).
func Macro(id, template string) string {
	if template == "" {
		template = MacroTemplate
	}
	return fmt.Sprintf(template, id)
}

// The serving platform's macro engine treats % followed by one of these
// single-letter codes as the start of a macro token.
var escapeModuloOp = regexp.MustCompile(`([^%])%([acghinstu])`)

// EscapeModuloOp inserts a space between a modulo operator and a following
// macro code letter, so literal modulo arithmetic in scripts is not
// misinterpreted as a macro token. Applying it twice is a no-op.
func EscapeModuloOp(content []byte) []byte {
	return escapeModuloOp.ReplaceAll(content, []byte("$1% $2"))
}
