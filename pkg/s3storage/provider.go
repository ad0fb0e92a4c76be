package s3storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/impresso/impresso-essentials/pkg/media"
	"github.com/impresso/impresso-essentials/pkg/utils"
)

// AliasFromPath extracts the media alias from an object key relative to
// a partition prefix. When the key already carries a provider level
// (provider/alias/...), the provider is returned as well.
func AliasFromPath(sourcePath, partition string) (alias, provider string, err error) {
	if partition != "" && !strings.HasSuffix(partition, "/") {
		partition += "/"
	}

	relative := sourcePath
	if partition != "" {
		relative = strings.Replace(sourcePath, partition, "", 1)
	}
	split := strings.Split(relative, "/")
	if len(split) < 2 {
		return "", "", fmt.Errorf("key %q does not contain a media alias at an expected place", sourcePath)
	}

	// the partner level may already be present (notably NZZ, where the
	// provider and the alias share a name)
	if media.IsKnownAlias(split[0]) && !media.IsKnownAlias(split[1]) {
		return split[0], "", nil
	}
	if titles, ok := media.ProviderToMedia[split[0]]; ok {
		for _, title := range titles {
			if title == split[1] {
				return split[1], split[0], nil
			}
		}
	}

	return "", "", fmt.Errorf("key %q does not contain a media alias at an expected place", sourcePath)
}

// ConstructProviderKey computes the destination key with the provider
// level inserted right after the partition prefix. Keys that already
// carry a provider are returned unchanged.
func ConstructProviderKey(srcKey, provider, partition, foundProvider string) string {
	if foundProvider != "" {
		return srcKey
	}

	if partition != "" {
		partition = strings.TrimSuffix(partition, "/")
		return strings.Replace(srcKey, partition, path.Join(partition, provider), 1)
	}

	// without a partition the provider becomes the first key element
	return path.Join(provider, srcKey)
}

// AddProviderReport summarizes one AddProviderToPartition run.
type AddProviderReport struct {
	Copied  int
	Skipped int
	Deleted int
}

// AddProviderToPartition inserts the provider level into every archive
// key under partition, copying each object to its provider-prefixed
// key in destBucket. With performCopy unset the copies are only
// logged. With removeSrcKeys set, source keys are deleted after a
// successful copy.
func (c *Client) AddProviderToPartition(ctx context.Context, srcBucket, destBucket, partition string, performCopy, removeSrcKeys bool) (*AddProviderReport, error) {
	cache := media.NewAliasCache()
	report := &AddProviderReport{}

	objects, err := c.ListFiles(ctx, srcBucket, partition)
	if err != nil {
		return nil, err
	}

	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".jsonl.bz2") {
			continue
		}

		alias, foundProvider, err := AliasFromPath(obj.Key, partition)
		if err != nil {
			utils.Warn("Skipping key without recognizable alias", "key", obj.Key)
			report.Skipped++
			continue
		}

		provider := foundProvider
		if provider == "" {
			provider, err = cache.ProviderFor(alias)
			if err != nil {
				utils.Warn("Skipping key with unknown provider", "key", obj.Key, "alias", alias)
				report.Skipped++
				continue
			}
		}

		destKey := ConstructProviderKey(obj.Key, provider, partition, foundProvider)
		if destKey == obj.Key {
			utils.Debug("Key already carries the provider level", "key", obj.Key)
			report.Skipped++
			continue
		}

		if !performCopy {
			utils.Info("Dry run - would have copied", "src", obj.Key, "dest", destKey)
			report.Copied++
			continue
		}

		// skip if the destination already exists
		if _, _, err := c.ObjectMetadata(ctx, destBucket, destKey); err == nil {
			utils.Info("Destination key already exists, skipping", "dest", destKey)
			report.Skipped++
			continue
		}

		if err := c.CopyObject(ctx, srcBucket, obj.Key, destBucket, destKey, nil); err != nil {
			return report, err
		}
		report.Copied++

		if removeSrcKeys {
			if err := c.DeleteObject(ctx, srcBucket, obj.Key); err != nil {
				return report, fmt.Errorf("copied but failed to delete source %s: %w", obj.Key, err)
			}
			report.Deleted++
		}
	}

	return report, nil
}
