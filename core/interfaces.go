// Package core defines the shared types of the AdPipe conversion pipeline.
// Each stage — bundle ingestion, snippet conversion, report rendering — works
// against the interfaces and payload shapes declared here.
package core

// Converter rewrites one snippet (and transitively the assets it references)
// in place. Converters are tried in a fixed priority order against Match;
// the first one that matches runs Convert and is never retried.
type Converter interface {
	// Type identifies the converter in snippet metadata and reports.
	Type() string
	// Match reports whether this converter recognizes the snippet's
	// authoring tool from its raw content.
	Match(s *Snippet) bool
	// Convert rewrites the snippet content in place, replacing asset
	// references with macro placeholders.
	Convert(s *Snippet) error
}

// CreativeAsset is the encoded payload of one asset as the ad-serving API
// expects it.
type CreativeAsset struct {
	AssetByteArray string `json:"assetByteArray"`
	FileName       string `json:"fileName"`
}

// CustomCreativeAsset pairs an asset payload with the macro name the serving
// platform substitutes at delivery time.
type CustomCreativeAsset struct {
	XSIType   string        `json:"xsi_type"`
	MacroName string        `json:"macroName"`
	Asset     CreativeAsset `json:"asset"`
}

// CreativePart is the converted output for one snippet: the HTML fragment
// plus every asset it references.
type CreativePart struct {
	HTMLSnippet          string                `json:"htmlSnippet"`
	CustomCreativeAssets []CustomCreativeAsset `json:"customCreativeAssets"`
}

// CreativeSize is the pixel size of the creative.
type CreativeSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Creative is the complete API payload: the creative part merged with the
// metadata fields supplied by the caller.
type Creative struct {
	CreativePart
	XSIType        string       `json:"xsi_type"`
	Name           string       `json:"name"`
	AdvertiserID   int64        `json:"advertiserId"`
	Size           CreativeSize `json:"size"`
	DestinationURL string       `json:"destinationUrl"`
}

// AssetInfo is one row of the asset mapping table shown in reports and by
// the inspect command.
type AssetInfo struct {
	Name        string
	ID          string
	Size        int64
	Mimetype    string
	Inlined     bool
	OverLimit   bool
	Unsupported bool
}

// ReportMeta carries transform context into report renderers.
type ReportMeta struct {
	TransformID string
	Filename    string
	SnippetName string
	SnippetType string
	GeneratedAt string // ISO8601
	Assets      []AssetInfo
}

// Renderer converts a creative (and its transform metadata) into a final
// output format.
type Renderer interface {
	Render(creative *Creative, meta ReportMeta) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json", ".pdf").
	Extension() string
}
