// Command compute-manifest generates the manifest for an S3 bucket
// partition after a processing run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/impresso/impresso-essentials/pkg/config"
	"github.com/impresso/impresso-essentials/pkg/s3storage"
	"github.com/impresso/impresso-essentials/pkg/utils"
	"github.com/impresso/impresso-essentials/pkg/versioning"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	logPath := flag.String("log-file", "", "path to the log file (timestamped default)")
	flag.Parse()

	// 1. Logger first, everything below reports through it
	if err := utils.InitLogger(*logPath); err != nil {
		log.Fatalf("Logger init error: %v", err)
	}
	defer utils.Close()

	// 2. Load and validate config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	mftCfg := cfg.Manifest.WithDefaults()
	if err := mftCfg.Validate(); err != nil {
		log.Fatalf("Manifest config error: %v", err)
	}

	// 3. Init S3
	s3Client, err := s3storage.New(cfg.S3)
	if err != nil {
		log.Fatalf("S3 init error: %v", err)
	}

	// 4. Run with graceful shutdown on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	stop := utils.SetupGracefulShutdown(cancel)
	defer stop()

	timer := utils.NewTimer()
	if err := versioning.CreateManifest(ctx, s3Client, s3Client, mftCfg); err != nil {
		utils.Error("Manifest computation failed", "error", err.Error())
		log.Fatalf("Manifest computation failed: %v", err)
	}

	elapsed := timer.Stop()
	utils.Info("Manifest computed and exported", "elapsed", elapsed.String())
	fmt.Printf("Manifest for stage %q computed and exported in %s\n",
		mftCfg.DataStage, elapsed)
}
