// Package cmd — convert command.
// This is the main command that orchestrates the pipeline:
// ingest → transform → assemble creative → render → write.
//
// It handles flag validation, renderer selection, and snippet resolution.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gaurav-prasanna/adpipe/core"
	"github.com/gaurav-prasanna/adpipe/core/output"
	"github.com/gaurav-prasanna/adpipe/core/report"
	"github.com/gaurav-prasanna/adpipe/transform"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagSnippet      string
	flagAdvertiserID string
	flagSize         string
	flagURL          string
	flagName         string

	flagJSON     bool
	flagMarkdown bool
	flagPDF      bool

	flagConfig     string
	flagAssetLimit int64
	flagOutputDir  string
)

var convertCmd = &cobra.Command{
	Use:   "convert <bundle.zip>",
	Short: "Convert a creative bundle to the specified output format",
	Long: `Convert ingests a zipped HTML5 creative, rewrites its asset references into
macro placeholders, and writes the result in the specified output format
(JSON API payload, Markdown review document, or PDF audit report).

Examples:
  adpipe convert banner.zip --advertiser_id 12345 --size 300x250 --url https://example.com --json
  adpipe convert banner.zip --advertiser_id 12345 --size 970x90 --url https://example.com --markdown --output_dir ./out
  adpipe convert banner.zip --advertiser_id 12345 --size 300x250 --url https://example.com --snippet ad/index.html --pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Creative metadata flags.
	convertCmd.Flags().StringVar(&flagSnippet, "snippet", "", "Snippet name inside the archive (default: the only HTML entry)")
	convertCmd.Flags().StringVar(&flagAdvertiserID, "advertiser_id", "", "Advertiser id to register the creative under (required)")
	convertCmd.Flags().StringVar(&flagSize, "size", "", "Creative size as WIDTHxHEIGHT (required)")
	convertCmd.Flags().StringVar(&flagURL, "url", "", "Clickthrough destination URL (required)")
	convertCmd.Flags().StringVar(&flagName, "name", "", "Creative name (auto-generated if not set)")

	// Output format flags (mutually exclusive).
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output the creative API payload as JSON")
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output a Markdown review document")
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output a PDF audit report")

	// Pipeline configuration.
	convertCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file")
	convertCmd.Flags().Int64Var(&flagAssetLimit, "asset_limit", 0, "Asset size ceiling in bytes (overrides config)")
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	bundlePath := args[0]

	if err := validateFlags(); err != nil {
		return err
	}
	renderer, err := selectRenderer()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t := transform.New(bundlePath, cfg)
	b, err := t.Bundle()
	if err != nil {
		return err
	}

	snippetName, err := resolveSnippet(b.SnippetNames())
	if err != nil {
		return err
	}

	creative, err := t.GetCreative(snippetName, flagAdvertiserID, flagURL, flagSize, flagName)
	if err != nil {
		return err
	}

	assets, err := b.AssetTable(snippetName)
	if err != nil {
		return err
	}
	meta := core.ReportMeta{
		TransformID: t.ID,
		Filename:    t.Filename,
		SnippetName: snippetName,
		SnippetType: b.Snippet(snippetName).Type,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Assets:      assets,
	}

	data, err := renderer.Render(creative, meta)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	path, err := writer.Write(t.ID, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// loadConfig builds the pipeline config from the optional YAML file and
// flag overrides.
func loadConfig() (core.Config, error) {
	var cfg core.Config
	if flagConfig != "" {
		var err error
		if cfg, err = core.LoadConfigFile(flagConfig); err != nil {
			return cfg, err
		}
	}
	if flagAssetLimit > 0 {
		cfg.AssetSizeLimit = flagAssetLimit
	}
	return cfg, nil
}

// resolveSnippet picks the snippet to convert: the --snippet flag when
// given, the only HTML entry otherwise.
func resolveSnippet(names []string) (string, error) {
	if flagSnippet != "" {
		return flagSnippet, nil
	}
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("bundle has %d HTML entries, pick one with --snippet: %s",
		len(names), strings.Join(names, ", "))
}

// validateFlags checks that exactly one output format is chosen and that the
// required metadata flags are present.
func validateFlags() error {
	formatCount := 0
	if flagJSON {
		formatCount++
	}
	if flagMarkdown {
		formatCount++
	}
	if flagPDF {
		formatCount++
	}
	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --json, --markdown, or --pdf")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	var missing []string
	if flagAdvertiserID == "" {
		missing = append(missing, "--advertiser_id")
	}
	if flagSize == "" {
		missing = append(missing, "--size")
	}
	if flagURL == "" {
		missing = append(missing, "--url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	switch {
	case flagJSON:
		return report.NewJSONRenderer(), nil
	case flagMarkdown:
		return report.NewMarkdownRenderer(), nil
	case flagPDF:
		return report.NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("no output format selected")
	}
}
