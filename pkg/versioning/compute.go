package versioning

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/impresso/impresso-essentials/pkg/config"
	"github.com/impresso/impresso-essentials/pkg/media"
	"github.com/impresso/impresso-essentials/pkg/s3storage"
	"github.com/impresso/impresso-essentials/pkg/utils"
	"github.com/impresso/impresso-essentials/pkg/versioning/aggregators"
)

// Store is the object-store access the manifest computation needs.
type Store interface {
	ListFiles(ctx context.Context, bucket, prefix string) ([]s3storage.StoredObject, error)
	ReadJSONLines(ctx context.Context, bucket, key string) ([]string, error)
}

// ExtractTitleKey extracts the media title a key belongs to, given
// the bucket (possibly with a partition) it was listed from.
//
// Buckets organized per title keep the title as the first path
// segment below the partition; flat buckets encode it as the first
// dash-separated part of the file name.
func ExtractTitleKey(s3Key, bucket string) string {
	bucket = strings.TrimPrefix(bucket, "s3://")
	if !strings.HasSuffix(bucket, "/") {
		bucket += "/"
	}
	key := strings.TrimPrefix(s3Key, "s3://")
	key = strings.TrimPrefix(key, bucket)

	if idx := strings.Index(key, "/"); idx >= 0 {
		return key[:idx]
	}
	if idx := strings.Index(key, "-"); idx >= 0 {
		return key[:idx]
	}
	return key
}

// GetFilesToConsider lists the S3 archives the manifest computation
// should read, grouped per media title.
func GetFilesToConsider(ctx context.Context, store Store, cfg config.ManifestConfig) (map[string][]string, error) {
	if cfg.FileExtensions == "" {
		return nil, fmt.Errorf("file_extensions must not be empty")
	}
	suffix := cfg.FileExtensions
	if !strings.Contains(suffix, ".") {
		suffix = "." + suffix
	}

	bucket, partition := s3storage.SplitPath(cfg.OutputBucket)

	files := make(map[string][]string)
	if len(cfg.Titles) == 0 {
		utils.Info("Fetching the files to consider for all titles",
			"bucket", cfg.OutputBucket)
		objects, err := store.ListFiles(ctx, bucket, partition)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", cfg.OutputBucket, err)
		}
		for _, obj := range objects {
			if !strings.HasSuffix(obj.Key, suffix) {
				continue
			}
			title := ExtractTitleKey(path.Join(bucket, obj.Key), cfg.OutputBucket)
			files[title] = append(files[title], obj.Key)
		}
		return files, nil
	}

	utils.Info("Fetching the files to consider for configured titles",
		"titles", strings.Join(cfg.Titles, ","))
	for _, title := range cfg.Titles {
		prefix := path.Join(partition, title)
		objects, err := store.ListFiles(ctx, bucket, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s/%s: %w", cfg.OutputBucket, title, err)
		}
		for _, obj := range objects {
			if strings.HasSuffix(obj.Key, suffix) {
				files[title] = append(files[title], obj.Key)
			}
		}
	}
	return files, nil
}

// RemoveCorruptedArchives reads every candidate archive once and
// drops the ones that cannot be decompressed, so they do not break
// the statistics computation later. Best effort: a read failure only
// excludes the file.
func RemoveCorruptedArchives(ctx context.Context, store Store, bucket string, files map[string][]string) map[string][]string {
	utils.Info("Checking all considered s3 archives for corruption")

	correct := make(map[string][]string)
	var corrupted []string
	for title, titleFiles := range files {
		for _, f := range titleFiles {
			if _, err := store.ReadJSONLines(ctx, bucket, f); err != nil {
				utils.Warn("Archive could not be read, excluding it",
					"key", f, "error", err.Error())
				corrupted = append(corrupted, f)
				continue
			}
			correct[title] = append(correct[title], f)
		}
	}

	utils.Info("Finished checking s3 archives",
		"corrupted", fmt.Sprint(len(corrupted)))
	return correct
}

// ComputeStatsForStage runs the stage's aggregation function over the
// given record lines. An unknown stage is a fatal error.
func ComputeStatsForStage(registry *aggregators.Registry, stage DataStage, title string, lines []string) ([]aggregators.YearStats, error) {
	fn, err := registry.Get(string(stage))
	if err != nil {
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, line := range lines {
			ch <- line
		}
	}()
	return fn(title, ch)
}

// titleResult carries the statistics computed for one title by a
// worker.
type titleResult struct {
	title string
	stats []aggregators.YearStats
	err   error
}

// ProcessByTitle computes the statistics title by title, reading each
// title's archives in a worker pool and merging the results into the
// manifest. Unknown title directories are skipped.
func ProcessByTitle(ctx context.Context, store Store, manifest *DataManifest, registry *aggregators.Registry, files map[string][]string, workers int) error {
	if workers < 1 {
		workers = 1
	}

	bucket, _ := s3storage.SplitPath(manifest.OutputBucket)

	titles := make([]string, 0, len(files))
	for title := range files {
		if !media.IsKnownAlias(title) {
			utils.Info("Found S3 files for an unknown media title, ignoring them",
				"title", title)
			continue
		}
		titles = append(titles, title)
	}
	sort.Strings(titles)

	jobs := make(chan string)
	results := make(chan titleResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for title := range jobs {
				stats, err := computeTitleStats(ctx, store, registry, manifest.Stage, bucket, title, files[title])
				results <- titleResult{title: title, stats: stats, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, title := range titles {
			select {
			case jobs <- title:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", res.title, res.err)
			}
			continue
		}
		utils.Info("Populating the manifest with yearly statistics",
			"title", res.title, "years", fmt.Sprint(len(res.stats)))
		if err := manifest.AddYearStats(res.stats); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func computeTitleStats(ctx context.Context, store Store, registry *aggregators.Registry, stage DataStage, bucket, title string, keys []string) ([]aggregators.YearStats, error) {
	var lines []string
	for _, key := range keys {
		fileLines, err := store.ReadJSONLines(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		lines = append(lines, fileLines...)
	}
	return ComputeStatsForStage(registry, stage, title, lines)
}

// ProcessAltogether computes the statistics over data that is not
// partitioned by title, reading everything once and filtering
// per title on the record's "ci_id" prefix.
func ProcessAltogether(ctx context.Context, store Store, manifest *DataManifest, registry *aggregators.Registry, files map[string][]string) error {
	bucket, _ := s3storage.SplitPath(manifest.OutputBucket)

	var all []string
	for _, titleFiles := range files {
		for _, key := range titleFiles {
			lines, err := store.ReadJSONLines(ctx, bucket, key)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", key, err)
			}
			all = append(all, lines...)
		}
	}

	for _, title := range media.AllMedia {
		quoted := fmt.Sprintf(`"%s-`, title)
		prefix := title + "-"
		var filtered []string
		for _, line := range all {
			// Cheap substring check first; a mention of the title in
			// another field (a source passage, a cluster id) is not
			// enough, the record's own identifier has to carry it.
			if !strings.Contains(line, quoted) {
				continue
			}
			if !strings.HasPrefix(gjson.Get(line, "ci_id").String(), prefix) {
				continue
			}
			filtered = append(filtered, line)
		}
		if len(filtered) == 0 {
			continue
		}
		stats, err := ComputeStatsForStage(registry, manifest.Stage, title, filtered)
		if err != nil {
			return err
		}
		if err := manifest.AddYearStats(stats); err != nil {
			return err
		}
	}
	return nil
}

// NextVersion determines the version for a new manifest: bump the
// previous manifest's version when one is given, start at v1-0-0
// otherwise. Patch runs bump the patch component, regular runs the
// minor one.
func NextVersion(previousPath string, isPatch bool) (ManifestVersion, error) {
	if previousPath == "" {
		return ManifestVersion{Major: 1}, nil
	}
	_, prev, err := ParseManifestFilename(path.Base(strings.TrimPrefix(previousPath, "s3://")))
	if err != nil {
		return ManifestVersion{}, err
	}
	if isPatch {
		return prev.BumpPatch(), nil
	}
	return prev.BumpMinor(), nil
}

// CreateManifest generates, finalizes and exports the manifest for a
// bucket partition, according to the provided configuration.
func CreateManifest(ctx context.Context, store Store, uploader Uploader, cfg config.ManifestConfig) error {
	stage, err := ValidateStage(cfg.DataStage)
	if err != nil {
		return err
	}
	utils.Info("Starting to generate the manifest", "stage", string(stage))

	files, err := GetFilesToConsider(ctx, store, cfg)
	if err != nil {
		return err
	}
	bucket, _ := s3storage.SplitPath(cfg.OutputBucket)
	if cfg.CheckArchives {
		files = RemoveCorruptedArchives(ctx, store, bucket, files)
	}

	manifest := NewDataManifest(stage, cfg.OutputBucket)
	manifest.InputBucket = cfg.InputBucket
	manifest.ModelID = cfg.ModelID
	manifest.RunID = cfg.RunID
	manifest.IsPatch = cfg.IsPatch
	manifest.PatchedFields = cfg.PatchedFields
	manifest.OnlyCounting = cfg.OnlyCounting
	manifest.PreviousPath = cfg.PreviousMftS3

	if cfg.GitRepository != "" {
		commit, err := CurrentCommit(cfg.GitRepository)
		if err != nil {
			return err
		}
		manifest.SetCodeCommit(commit)
	}
	if cfg.Notes != "" {
		manifest.AppendToNotes(cfg.Notes, false)
	} else {
		note := fmt.Sprintf("Processing data to generate %s for ", stage)
		if len(cfg.Titles) != 0 {
			note += fmt.Sprintf("titles: %s.", strings.Join(cfg.Titles, ", "))
		} else {
			note += "all media titles."
		}
		manifest.AppendToNotes(note, false)
	}

	registry := aggregators.DefaultRegistry()
	if cfg.Altogether {
		err = ProcessAltogether(ctx, store, manifest, registry, files)
	} else {
		err = ProcessByTitle(ctx, store, manifest, registry, files, cfg.Workers)
	}
	if err != nil {
		return err
	}

	version, err := NextVersion(cfg.PreviousMftS3, cfg.IsPatch)
	if err != nil {
		return err
	}

	utils.Info("Finalizing the manifest", "version", version.String())
	doc, err := manifest.Finalize(version)
	if err != nil {
		return err
	}

	exporter := &Exporter{
		Store:       uploader,
		GitDir:      cfg.GitRepository,
		RelativeDir: cfg.RelativeGitDir,
		PushToGit:   cfg.PushToGit,
	}
	return exporter.Export(ctx, doc)
}
