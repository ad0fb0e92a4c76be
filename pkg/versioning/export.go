package versioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Uploader is the subset of the object-store client the exporter
// needs.
type Uploader interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte) error
}

// Exporter publishes a finalized manifest document to its two
// destinations: the versioning git repository and the S3 output
// bucket. Both legs are attempted; a failure on either one is
// reported, with no rollback of the leg that succeeded.
type Exporter struct {
	Store       Uploader
	GitDir      string
	RelativeDir string
	PushToGit   bool
}

// CurrentCommit returns the HEAD commit hash of the git repository at
// dir, searching parent directories for the .git folder.
func CurrentCommit(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD of %s: %w", dir, err)
	}
	return head.Hash().String(), nil
}

// Export validates the document and publishes it. The git leg writes
// the manifest file into the repository, commits it and optionally
// pushes; the S3 leg uploads it to the configured output bucket.
// Errors from both legs are joined so partial failures stay visible.
func (e *Exporter) Export(ctx context.Context, doc *ManifestDocument) error {
	if err := ValidateDocument(doc); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	filename := filepath.Base(strings.TrimPrefix(doc.MftS3Path, "s3://"))

	var gitErr, s3Err error
	if e.GitDir != "" {
		gitErr = e.exportToGit(filename, raw)
	}
	if e.Store != nil {
		bucket, key := splitManifestPath(doc.MftS3Path)
		s3Err = e.Store.UploadFile(ctx, bucket, key, raw)
		if s3Err != nil {
			s3Err = fmt.Errorf("failed to upload manifest to %s: %w", doc.MftS3Path, s3Err)
		}
	}
	return errors.Join(gitErr, s3Err)
}

// exportToGit writes the manifest into the repository worktree,
// commits it and pushes when configured to.
func (e *Exporter) exportToGit(filename string, raw []byte) error {
	repo, err := git.PlainOpenWithOptions(e.GitDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open git repository at %s: %w", e.GitDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	relPath := filename
	if e.RelativeDir != "" {
		relPath = filepath.Join(e.RelativeDir, filename)
	}
	fullPath := filepath.Join(wt.Filesystem.Root(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(fullPath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	if _, err := wt.Add(relPath); err != nil {
		return fmt.Errorf("failed to stage %s: %w", relPath, err)
	}
	_, err = wt.Commit(fmt.Sprintf("Add manifest %s", filename), &git.CommitOptions{
		Author: &object.Signature{
			Name:  "impresso-essentials",
			Email: "info@impresso-project.ch",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", relPath, err)
	}

	if !e.PushToGit {
		return nil
	}
	if err := repo.Push(&git.PushOptions{}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push manifest commit: %w", err)
	}
	return nil
}

func splitManifestPath(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
