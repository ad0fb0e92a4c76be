// Command s3-set-timestamp stamps each archive under a prefix with
// the last timestamp found inside its records, stored as object
// metadata. Archives already carrying the metadata key are skipped
// unless -force is given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/impresso/impresso-essentials/pkg/config"
	"github.com/impresso/impresso-essentials/pkg/s3storage"
	"github.com/impresso/impresso-essentials/pkg/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	logPath := flag.String("log-file", "", "path to the log file (timestamped default)")
	bucket := flag.String("bucket", "", "bucket holding the archives")
	prefix := flag.String("prefix", "", "key prefix selecting the archives")
	metadataKey := flag.String("metadata-key", "impresso-last-ts", "metadata key to store the timestamp under")
	tsKey := flag.String("ts-key", "ts", "JSON field holding the record timestamp")
	allLines := flag.Bool("all-lines", false, "scan every record rather than the last one")
	force := flag.Bool("force", false, "overwrite an existing timestamp metadata entry")
	report := flag.Bool("report-missing", false, "only report archives missing the metadata, change nothing")
	flag.Parse()

	if *bucket == "" {
		fmt.Fprintln(os.Stderr, "Usage: s3-set-timestamp -bucket <bucket> [-prefix <prefix>] [flags]")
		os.Exit(1)
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

	if *report {
		missing, err := s3Client.ReportMissingMetadata(ctx, *bucket, *prefix, *metadataKey)
		if err != nil {
			log.Fatalf("Report error: %v", err)
		}
		fmt.Printf("%d archives are missing the %q metadata:\n", len(missing), *metadataKey)
		for _, key := range missing {
			fmt.Println("  " + key)
		}
		return
	}

	files, err := s3Client.ListFiles(ctx, *bucket, *prefix)
	if err != nil {
		log.Fatalf("Listing error: %v", err)
	}

	var stamped, skipped, failed int
	for _, f := range files {
		ts, err := s3Client.SetTimestampMetadata(ctx, *bucket, f.Key, *metadataKey, *tsKey, *allLines, *force)
		switch {
		case errors.Is(err, s3storage.ErrMetadataExists):
			skipped++
		case err != nil:
			failed++
			utils.Error("Failed to set timestamp metadata", "key", f.Key, "error", err.Error())
		default:
			stamped++
			utils.Info("Timestamp metadata set", "key", f.Key, "ts", ts.Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Printf("Done: %d stamped, %d already stamped, %d failed.\n", stamped, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
