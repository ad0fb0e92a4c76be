package bbox

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeStub serves record lines keyed by "<bucket>/<key>".
type storeStub map[string][]string

func (s storeStub) ReadJSONLines(_ context.Context, bucket, key string) ([]string, error) {
	lines, ok := s[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s/%s", bucket, key)
	}
	return lines, nil
}

func samplePage() *PageManifest {
	return &PageManifest{
		ID:   "GDL-1900-01-02-a-p0001",
		IIIF: "https://iiif.example.org/GDL-1900-01-02-a-p0001",
		Regions: []Region{
			{
				PartOf: "GDL-1900-01-02-a-i0001",
				Coords: []int{0, 0, 100, 200},
				Paragraphs: []Paragraph{
					{
						Coords: []int{0, 0, 100, 90},
						Lines: []Line{
							{
								Coords: []int{0, 0, 100, 40},
								Tokens: []Token{
									{Coords: []int{0, 0, 30, 40}},
									{Coords: []int{35, 0, 40, 40}},
								},
							},
							{
								Coords: []int{0, 50, 100, 40},
								Tokens: []Token{{Coords: []int{0, 50, 60, 40}}},
							},
						},
					},
				},
			},
			{
				PartOf:     "GDL-1900-01-02-a-i0002",
				Coords:     []int{0, 210, 100, 50},
				Paragraphs: []Paragraph{{Coords: []int{0, 210, 100, 50}}},
			},
		},
	}
}

func TestValidateLevel(t *testing.T) {
	for _, s := range []string{"regions", "paragraphs", "lines", "tokens"} {
		level, err := ValidateLevel(s)
		require.NoError(t, err)
		assert.Equal(t, Level(s), level)
	}
	_, err := ValidateLevel("words")
	assert.Error(t, err)
}

func TestPageBoundingBoxesLevels(t *testing.T) {
	page := samplePage()

	counts := map[Level]int{
		LevelRegions:    2,
		LevelParagraphs: 2,
		LevelLines:      2,
		LevelTokens:     3,
	}
	for level, want := range counts {
		boxes, err := PageBoundingBoxes(page, level)
		require.NoError(t, err)
		assert.Len(t, boxes["https://iiif.example.org/GDL-1900-01-02-a-p0001"], want, level)
	}
}

func TestPageBoundingBoxesKeepContentItem(t *testing.T) {
	boxes, err := PageBoundingBoxes(samplePage(), LevelRegions)
	require.NoError(t, err)

	got := boxes["https://iiif.example.org/GDL-1900-01-02-a-p0001"]
	require.Len(t, got, 2)
	assert.Equal(t, "GDL-1900-01-02-a-i0001", got[0].ContentItem)
	assert.Equal(t, []int{0, 0, 100, 200}, got[0].Coords)
	assert.Equal(t, "GDL-1900-01-02-a-i0002", got[1].ContentItem)
}

func TestBaseURLFieldFallback(t *testing.T) {
	page := &PageManifest{IIIFImgBaseURI: "https://iiif.example.org/p1"}
	url, err := page.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://iiif.example.org/p1", url)

	img, err := page.ImageURL()
	require.NoError(t, err)
	assert.Equal(t, "https://iiif.example.org/p1/full/full/0/default.jpg", img)

	_, err = (&PageManifest{}).BaseURL()
	assert.Error(t, err)
}

func TestCreateS3Path(t *testing.T) {
	// page manifests live next to the canonical issues
	path, err := CreateS3Path("GDL-1900-01-02-a-p0001")
	require.NoError(t, err)
	assert.Equal(t, "s3://12-canonical-final/GDL/pages/GDL-1900/GDL-1900-01-02-a-pages.jsonl.bz2", path)

	// content items resolve against the rebuilt data
	path, err = CreateS3Path("GDL-1900-01-02-a-i0001")
	require.NoError(t, err)
	assert.Equal(t, "s3://22-rebuilt-final/GDL/GDL-1900.jsonl.bz2", path)

	// issues
	path, err = CreateS3Path("GDL-1900-01-02-a")
	require.NoError(t, err)
	assert.Equal(t, "s3://12-canonical-final/GDL/issues/GDL-1900-issues.jsonl.bz2", path)

	_, err = CreateS3Path("GDL-1900")
	assert.Error(t, err)
}

func TestCIBoundingBoxesRejectsUnsupportedLevels(t *testing.T) {
	ci := &CIManifest{ID: "GDL-1900-01-02-a-i0001", Type: "ar"}
	_, err := CIBoundingBoxes(context.Background(), storeStub{}, ci, LevelLines)
	assert.Error(t, err)
}

func TestBuildDocumentForPage(t *testing.T) {
	store := storeStub{
		"12-canonical-final/GDL/pages/GDL-1900/GDL-1900-01-02-a-pages.jsonl.bz2": {
			`{"id":"GDL-1900-01-02-a-p0002","iiif":"https://iiif.example.org/p2","r":[]}`,
			`{"id":"GDL-1900-01-02-a-p0001","iiif":"https://iiif.example.org/p1","r":[{"pOf":"GDL-1900-01-02-a-i0001","c":[1,2,3,4],"p":[]}]}`,
		},
	}

	doc, err := BuildDocument(context.Background(), store, "GDL-1900-01-02-a-p0001", LevelRegions)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://iiif.example.org/p1"}, doc.IIIFImgBaseURI)
	require.Len(t, doc.BBoxes["https://iiif.example.org/p1"], 1)
	assert.Equal(t, []int{1, 2, 3, 4}, doc.BBoxes["https://iiif.example.org/p1"][0].Coords)
}

func TestBuildDocumentForContentItem(t *testing.T) {
	store := storeStub{
		"22-rebuilt-final/GDL/GDL-1900.jsonl.bz2": {
			`{"id":"GDL-1900-01-02-a-i0001","tp":"ar","ppreb":[{"id":"GDL-1900-01-02-a-p0001","r":[[5,6,7,8]],"t":[{"c":[5,6,2,2]}]}]}`,
		},
		"12-canonical-final/GDL/pages/GDL-1900/GDL-1900-01-02-a-pages.jsonl.bz2": {
			`{"id":"GDL-1900-01-02-a-p0001","iiif":"https://iiif.example.org/p1","r":[]}`,
		},
	}

	doc, err := BuildDocument(context.Background(), store, "GDL-1900-01-02-a-i0001", LevelRegions)
	require.NoError(t, err)

	boxes := doc.BBoxes["https://iiif.example.org/p1"]
	require.Len(t, boxes, 1)
	assert.Equal(t, "ar", boxes[0].Type)
	assert.Equal(t, "GDL-1900-01-02-a-i0001", boxes[0].ContentItem)
	assert.Equal(t, []int{5, 6, 7, 8}, boxes[0].Coords)
}

func TestBuildDocumentUnknownID(t *testing.T) {
	store := storeStub{
		"12-canonical-final/GDL/pages/GDL-1900/GDL-1900-01-02-a-pages.jsonl.bz2": {},
	}
	_, err := BuildDocument(context.Background(), store, "GDL-1900-01-02-a-p0001", LevelRegions)
	assert.Error(t, err)
}
