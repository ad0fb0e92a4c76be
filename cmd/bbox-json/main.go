// Command bbox-json extracts the bounding boxes of a canonical page
// or content item at a chosen granularity and writes them as JSON.
// With -image, it also renders the boxes onto a local page scan.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/impresso/impresso-essentials/pkg/bbox"
	"github.com/impresso/impresso-essentials/pkg/config"
	"github.com/impresso/impresso-essentials/pkg/s3storage"
	"github.com/impresso/impresso-essentials/pkg/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	logPath := flag.String("log-file", "", "path to the log file (timestamped default)")
	elementID := flag.String("id", "", "canonical page or content item identifier")
	levelFlag := flag.String("level", "regions", "granularity: regions, paragraphs, lines or tokens")
	outPath := flag.String("out", "", "output JSON path (stdout when empty)")
	imagePath := flag.String("image", "", "local page scan to draw the boxes onto")
	previewPath := flag.String("preview", "", "output path for the rendered preview (requires -image)")
	previewWidth := flag.Int("preview-width", 1200, "maximum width of the rendered preview")
	flag.Parse()

	if *elementID == "" {
		fmt.Fprintln(os.Stderr, "Usage: bbox-json -id <element-id> [-level <level>] [-out <path>]")
		os.Exit(1)
	}
	level, err := bbox.ValidateLevel(*levelFlag)
	if err != nil {
		log.Fatalf("Level error: %v", err)
	}

	if err := utils.InitLogger(*logPath); err != nil {
		log.Fatalf("Logger init error: %v", err)
	}
	defer utils.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	s3Client, err := s3storage.New(cfg.S3)
	if err != nil {
		log.Fatalf("S3 init error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stop := utils.SetupGracefulShutdown(cancel)
	defer stop()

	doc, err := bbox.BuildDocument(ctx, s3Client, *elementID, level)
	if err != nil {
		utils.Error("Bounding box extraction failed", "id", *elementID, "error", err.Error())
		log.Fatalf("Extraction error: %v", err)
	}

	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		log.Fatalf("Marshal error: %v", err)
	}
	if *outPath == "" {
		fmt.Println(string(raw))
	} else if err := os.WriteFile(*outPath, raw, 0o644); err != nil {
		log.Fatalf("Write error: %v", err)
	}

	if *imagePath == "" {
		return
	}
	if *previewPath == "" {
		log.Fatalf("-image requires -preview to know where to write the rendering")
	}

	imageData, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("Image read error: %v", err)
	}
	var boxes []bbox.BBox
	for _, pageBoxes := range doc.BBoxes {
		boxes = append(boxes, pageBoxes...)
	}
	rendered, err := bbox.RenderPreview(imageData, boxes, *previewWidth, 90)
	if err != nil {
		log.Fatalf("Render error: %v", err)
	}
	if err := os.WriteFile(*previewPath, rendered, 0o644); err != nil {
		log.Fatalf("Preview write error: %v", err)
	}
	utils.Info("Preview rendered", "path", *previewPath, "boxes", len(boxes))
}
