// Package bbox extracts bounding boxes from canonical page manifests
// and rebuilt content-item manifests, at a selectable level of detail.
package bbox

import "fmt"

// Level selects the granularity of the extracted boxes.
type Level string

const (
	LevelRegions    Level = "regions"
	LevelParagraphs Level = "paragraphs"
	LevelLines      Level = "lines"
	LevelTokens     Level = "tokens"
)

// ValidateLevel checks that the given string names a known level.
func ValidateLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelRegions, LevelParagraphs, LevelLines, LevelTokens:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown level: %s", s)
}

// TypeMappings normalizes the content-item type labels found in
// canonical manifests to their short codes. The page type maps to an
// empty code and is dropped from outputs.
var TypeMappings = map[string]string{
	"article":       "ar",
	"ar":            "ar",
	"advertisement": "ad",
	"ad":            "ad",
	"pg":            "",
	"image":         "img",
	"table":         "tb",
	"death_notice":  "ob",
	"weather":       "w",
}

// BBox is one extracted bounding box: the content-item type code, the
// content-item ID the box belongs to, and its coordinates as
// [x, y, width, height].
type BBox struct {
	Type        string `json:"t"`
	ContentItem string `json:"ci"`
	Coords      []int  `json:"c"`
}

// PageManifest is the subset of a canonical page manifest needed for
// box extraction.
type PageManifest struct {
	ID             string   `json:"id"`
	IIIF           string   `json:"iiif,omitempty"`
	IIIFImgBaseURI string   `json:"iiif_img_base_uri,omitempty"`
	Regions        []Region `json:"r"`
}

// Region is a page region attached to a content item (pOf).
type Region struct {
	PartOf     string      `json:"pOf,omitempty"`
	Coords     []int       `json:"c"`
	Paragraphs []Paragraph `json:"p"`
}

// Paragraph groups lines inside a region.
type Paragraph struct {
	Coords []int  `json:"c"`
	Lines  []Line `json:"l"`
}

// Line groups tokens.
type Line struct {
	Coords []int   `json:"c"`
	Tokens []Token `json:"t"`
}

// Token is a single token box.
type Token struct {
	Coords []int `json:"c"`
}

// BaseURL returns the IIIF base URL of a page, handling earlier
// manifest versions that used a different field name.
func (p *PageManifest) BaseURL() (string, error) {
	if p.IIIF != "" {
		return p.IIIF, nil
	}
	if p.IIIFImgBaseURI != "" {
		return p.IIIFImgBaseURI, nil
	}
	return "", fmt.Errorf("no IIIF base URL found in the page manifest")
}

// ImageURL returns the full IIIF image URL of the page.
func (p *PageManifest) ImageURL() (string, error) {
	base, err := p.BaseURL()
	if err != nil {
		return "", err
	}
	return base + "/full/full/0/default.jpg", nil
}

// CIManifest is the subset of a rebuilt content-item manifest needed
// for box extraction.
type CIManifest struct {
	ID    string        `json:"id"`
	Type  string        `json:"tp"`
	Pages []RebuiltPage `json:"ppreb"`
}

// RebuiltPage lists the page-level regions and tokens of one content
// item.
type RebuiltPage struct {
	ID      string         `json:"id"`
	Regions [][]int        `json:"r"`
	Tokens  []RebuiltToken `json:"t"`
}

// RebuiltToken is a token box in a rebuilt manifest.
type RebuiltToken struct {
	Coords []int `json:"c"`
}
