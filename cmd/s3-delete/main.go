// Command s3-delete removes all objects under a bucket prefix, after
// an explicit confirmation.
package main

import (
	"context"
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
	bucket := flag.String("bucket", "", "bucket holding the objects to delete")
	prefix := flag.String("prefix", "", "key prefix selecting the objects to delete")
	yes := flag.Bool("yes", false, "skip the interactive confirmation")
	flag.Parse()

	if *bucket == "" {
		fmt.Fprintln(os.Stderr, "Usage: s3-delete -bucket <bucket> [-prefix <prefix>] [-yes]")
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

	// Show what would be deleted before asking
	files, err := s3Client.ListFiles(ctx, *bucket, *prefix)
	if err != nil {
		log.Fatalf("Listing error: %v", err)
	}
	if len(files) == 0 {
		fmt.Printf("Nothing to delete under s3://%s/%s\n", *bucket, *prefix)
		return
	}
	fmt.Printf("About to delete %d objects under s3://%s/%s\n", len(files), *bucket, *prefix)

	if !*yes {
		question := fmt.Sprintf("Delete %d objects from s3://%s/%s?", len(files), *bucket, *prefix)
		confirmed, err := utils.UserConfirmation(question, "no")
		if err != nil {
			log.Fatalf("Confirmation error: %v", err)
		}
		if !confirmed {
			fmt.Println("Aborted, nothing deleted.")
			return
		}
	}

	deleted, err := s3Client.DeletePrefix(ctx, *bucket, *prefix)
	if err != nil {
		utils.Error("Prefix deletion failed", "bucket", *bucket, "prefix", *prefix, "error", err.Error())
		log.Fatalf("Deletion error after %d objects: %v", deleted, err)
	}

	utils.Info("Prefix deleted", "bucket", *bucket, "prefix", *prefix, "deleted", deleted)
	fmt.Printf("Deleted %d objects.\n", deleted)
}
