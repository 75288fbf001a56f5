// Package cmd — inspect command.
// Ingests and converts a bundle without assembling the API payload, then
// prints the per-snippet asset mapping tables for operator review.
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/adpipe/core"
	"github.com/gaurav-prasanna/adpipe/transform"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <bundle.zip>",
	Short: "Show how a bundle's snippets and assets map to macro placeholders",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file")
	inspectCmd.Flags().Int64Var(&flagAssetLimit, "asset_limit", 0, "Asset size ceiling in bytes (overrides config)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t := transform.New(args[0], cfg)
	b, err := t.Bundle()
	if err != nil {
		return err
	}

	for i, name := range b.SnippetNames() {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		snippet := b.Snippet(name)
		if title := snippetTitle(snippet.Content); title != "" {
			fmt.Fprintf(os.Stdout, "snippet: %s (id %s, converter %s, title %q)\n\n",
				name, snippet.ID, snippet.Type, title)
		} else {
			fmt.Fprintf(os.Stdout, "snippet: %s (id %s, converter %s)\n\n", name, snippet.ID, snippet.Type)
		}

		assets, err := b.AssetTable(name)
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Fprintln(os.Stdout, "no assets referenced")
			continue
		}
		fmt.Fprint(os.Stdout, assetTable(assets))
	}
	return nil
}

// assetTable formats the asset mapping rows as an ASCII table with columns
// padded to their widest value.
func assetTable(assets []core.AssetInfo) string {
	fields := []string{"name", "id", "size", "mimetype", "inlined", "over_limit", "unsupported"}
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []string{
			a.Name, a.ID, fmt.Sprintf("%d", a.Size), a.Mimetype,
			boolCell(a.Inlined), boolCell(a.OverLimit), boolCell(a.Unsupported),
		})
	}

	pads := make([]int, len(fields))
	for i, f := range fields {
		pads[i] = len(f)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > pads[i] {
				pads[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = cell + strings.Repeat(" ", pads[i]-len(cell))
		}
		b.WriteString(strings.TrimRight(strings.Join(padded, " "), " "))
		b.WriteByte('\n')
	}
	writeRow(fields)
	dashes := make([]string, len(fields))
	for i := range fields {
		dashes[i] = strings.Repeat("-", pads[i])
	}
	writeRow(dashes)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// snippetTitle pulls the document <title> out of the snippet's original
// content, "" when absent or unparseable.
func snippetTitle(content []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func boolCell(v bool) string {
	if v {
		return "true"
	}
	return ""
}
