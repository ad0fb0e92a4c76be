package bbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/impresso/impresso-essentials/pkg/s3storage"
)

// Store is the subset of the storage client needed for manifest
// lookups.
type Store interface {
	ReadJSONLines(ctx context.Context, bucket, key string) ([]string, error)
}

// PageBoundingBoxes extracts the boxes of one page at the given level,
// keyed by the page's IIIF base URL.
func PageBoundingBoxes(page *PageManifest, level Level) (map[string][]BBox, error) {
	baseURL, err := page.BaseURL()
	if err != nil {
		return nil, err
	}

	var boxes []BBox
	for _, region := range page.Regions {
		switch level {
		case LevelRegions:
			boxes = append(boxes, BBox{ContentItem: region.PartOf, Coords: region.Coords})
		case LevelParagraphs:
			for _, p := range region.Paragraphs {
				boxes = append(boxes, BBox{ContentItem: region.PartOf, Coords: p.Coords})
			}
		case LevelLines:
			for _, p := range region.Paragraphs {
				for _, l := range p.Lines {
					boxes = append(boxes, BBox{ContentItem: region.PartOf, Coords: l.Coords})
				}
			}
		case LevelTokens:
			for _, p := range region.Paragraphs {
				for _, l := range p.Lines {
					for _, t := range l.Tokens {
						boxes = append(boxes, BBox{ContentItem: region.PartOf, Coords: t.Coords})
					}
				}
			}
		default:
			return nil, fmt.Errorf("unknown level: %s", level)
		}
	}

	return map[string][]BBox{baseURL: boxes}, nil
}

// CIBoundingBoxes extracts the boxes of one content item at the given
// level. The page canonical manifests are fetched to resolve the image
// URLs; only regions and tokens exist at the content-item level.
func CIBoundingBoxes(ctx context.Context, store Store, ci *CIManifest, level Level) (map[string][]BBox, error) {
	if level != LevelRegions && level != LevelTokens {
		return nil, fmt.Errorf("content items only carry %s and %s boxes, got %s",
			LevelRegions, LevelTokens, level)
	}

	boxes := make(map[string][]BBox)
	for _, page := range ci.Pages {
		pageManifest, err := FetchPageManifest(ctx, store, page.ID)
		if err != nil {
			return nil, err
		}
		imageURL, err := pageManifest.BaseURL()
		if err != nil {
			return nil, err
		}

		switch level {
		case LevelRegions:
			for _, region := range page.Regions {
				boxes[imageURL] = append(boxes[imageURL],
					BBox{Type: ci.Type, ContentItem: ci.ID, Coords: region})
			}
		case LevelTokens:
			for _, token := range page.Tokens {
				boxes[imageURL] = append(boxes[imageURL],
					BBox{Type: ci.Type, ContentItem: ci.ID, Coords: token.Coords})
			}
		}
	}

	return boxes, nil
}

// CreateS3Path builds the canonical or rebuilt manifest path for a
// page, content-item or issue ID.
//
// ID shapes: NEWSPAPER-YYYY-MM-DD-e-pNNNN (page), ...-iNNNN (content
// item), NEWSPAPER-YYYY-MM-DD-e (issue).
func CreateS3Path(elementID string) (string, error) {
	parts := strings.Split(elementID, "-")
	switch len(parts) {
	case 6:
		newspaper, year := parts[0], parts[1]
		last := parts[5]
		if strings.Contains(last, "p") {
			return fmt.Sprintf("s3://12-canonical-final/%s/pages/%s-%s/%s-%s-%s-%s-%s-pages.jsonl.bz2",
				newspaper, newspaper, year, newspaper, year, parts[2], parts[3], parts[4]), nil
		}
		if strings.Contains(last, "i") {
			return fmt.Sprintf("s3://22-rebuilt-final/%s/%s-%s.jsonl.bz2", newspaper, newspaper, year), nil
		}
		return "", fmt.Errorf("invalid element id: %s", elementID)
	case 5:
		newspaper, year := parts[0], parts[1]
		return fmt.Sprintf("s3://12-canonical-final/%s/issues/%s-%s-issues.jsonl.bz2",
			newspaper, newspaper, year), nil
	}
	return "", fmt.Errorf("invalid element id: %s", elementID)
}

// FetchPageManifest locates and decodes the canonical manifest of the
// given page.
func FetchPageManifest(ctx context.Context, store Store, pageID string) (*PageManifest, error) {
	s3Path, err := CreateS3Path(pageID)
	if err != nil {
		return nil, err
	}
	bucket, key := s3storage.SplitPath(s3Path)

	lines, err := store.ReadJSONLines(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		if gjson.Get(line, "id").String() != pageID {
			continue
		}
		var page PageManifest
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			return nil, fmt.Errorf("malformed page manifest %s: %w", pageID, err)
		}
		return &page, nil
	}

	return nil, fmt.Errorf("manifest for id %s not found", pageID)
}

// ContentItemType resolves the type code of a content item from the
// canonical manifest of its issue.
func ContentItemType(ctx context.Context, store Store, ciID string) (string, error) {
	parts := strings.Split(ciID, "-")
	if len(parts) != 6 {
		return "", fmt.Errorf("invalid content item id: %s", ciID)
	}
	issueID := strings.Join(parts[:5], "-")

	issuePath, err := CreateS3Path(issueID)
	if err != nil {
		return "", err
	}
	bucket, key := s3storage.SplitPath(issuePath)

	lines, err := store.ReadJSONLines(ctx, bucket, key)
	if err != nil {
		return "", err
	}

	for _, line := range lines {
		if gjson.Get(line, "id").String() != issueID {
			continue
		}
		// pluck the content item's declared type from the issue items
		for _, item := range gjson.Get(line, "i").Array() {
			meta := item.Get("m")
			if meta.Get("id").String() == ciID {
				tp := meta.Get("tp").String()
				if code, ok := TypeMappings[tp]; ok {
					return code, nil
				}
				return "", fmt.Errorf("unknown content item type %q for %s", tp, ciID)
			}
		}
	}

	return "", fmt.Errorf("content item %s not found in issue %s", ciID, issueID)
}

// Document is the exported bbox JSON structure.
type Document struct {
	IIIFImgBaseURI []string          `json:"iiif_img_base_uri"`
	BBoxes         map[string][]BBox `json:"bboxes"`
}

// BuildDocument extracts the bounding boxes of a page, content item or
// issue element and assembles the export document.
func BuildDocument(ctx context.Context, store Store, elementID string, level Level) (*Document, error) {
	s3Path, err := CreateS3Path(elementID)
	if err != nil {
		return nil, err
	}
	bucket, key := s3storage.SplitPath(s3Path)

	lines, err := store.ReadJSONLines(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	var manifestLine string
	for _, line := range lines {
		if gjson.Get(line, "id").String() == elementID {
			manifestLine = line
			break
		}
	}
	if manifestLine == "" {
		return nil, fmt.Errorf("manifest for id %s not found", elementID)
	}

	var boxes map[string][]BBox
	parts := strings.Split(elementID, "-")
	switch {
	case len(parts) == 6 && strings.Contains(parts[5], "p"):
		var page PageManifest
		if err := json.Unmarshal([]byte(manifestLine), &page); err != nil {
			return nil, fmt.Errorf("malformed page manifest %s: %w", elementID, err)
		}
		boxes, err = PageBoundingBoxes(&page, level)
	case len(parts) == 6 && strings.Contains(parts[5], "i"):
		var ci CIManifest
		if err := json.Unmarshal([]byte(manifestLine), &ci); err != nil {
			return nil, fmt.Errorf("malformed content item manifest %s: %w", elementID, err)
		}
		boxes, err = CIBoundingBoxes(ctx, store, &ci, level)
	default:
		return nil, fmt.Errorf("invalid element id format: %s", elementID)
	}
	if err != nil {
		return nil, err
	}

	doc := &Document{BBoxes: boxes}
	for url := range boxes {
		doc.IIIFImgBaseURI = append(doc.IIIFImgBaseURI, url)
	}
	sort.Strings(doc.IIIFImgBaseURI)
	return doc, nil
}
