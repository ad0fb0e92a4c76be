// Command s3-add-provider restructures a bucket partition so that
// every media title lives under its data provider: keys of the form
// partition/alias/... are copied to partition/provider/alias/...
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
	srcBucket := flag.String("src-bucket", "", "bucket to read the current keys from")
	destBucket := flag.String("dest-bucket", "", "bucket to copy the restructured keys to (defaults to src-bucket)")
	partition := flag.String("partition", "", "partition inside the bucket to restructure")
	dryRun := flag.Bool("dry-run", false, "resolve providers and report, copy nothing")
	removeSrc := flag.Bool("remove-src", false, "delete the source keys after a successful copy")
	flag.Parse()

	if *srcBucket == "" {
		fmt.Fprintln(os.Stderr, "Usage: s3-add-provider -src-bucket <bucket> [-dest-bucket <bucket>] [-partition <p>] [flags]")
		os.Exit(1)
	}
	if *destBucket == "" {
		*destBucket = *srcBucket
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

	if *removeSrc && !*dryRun {
		confirmed, err := utils.UserConfirmation(
			fmt.Sprintf("Source keys in s3://%s/%s will be deleted after copying. Continue?", *srcBucket, *partition), "no")
		if err != nil {
			log.Fatalf("Confirmation error: %v", err)
		}
		if !confirmed {
			fmt.Println("Aborted, nothing changed.")
			return
		}
	}

	report, err := s3Client.AddProviderToPartition(ctx, *srcBucket, *destBucket, *partition, !*dryRun, *removeSrc)
	if err != nil {
		utils.Error("Provider restructuring failed", "error", err.Error())
		log.Fatalf("Restructuring error: %v", err)
	}

	utils.Info("Provider restructuring finished",
		"copied", report.Copied, "skipped", report.Skipped, "deleted", report.Deleted)
	if *dryRun {
		fmt.Printf("Dry run: %d keys would be copied, %d skipped.\n", report.Copied, report.Skipped)
		return
	}
	fmt.Printf("Done: %d keys copied, %d skipped, %d source keys deleted.\n",
		report.Copied, report.Skipped, report.Deleted)
}
