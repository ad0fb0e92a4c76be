package s3storage

import (
	"context"
	"fmt"
	"strings"
)

// SplitPath splits an "s3://bucket/some/prefix" style path into bucket
// and key parts. The scheme is optional.
func SplitPath(path string) (bucket, key string) {
	path = strings.TrimPrefix(path, "s3://")
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}
	return bucket, key
}

// Glob lists all keys matching a path with a single "*" wildcard, e.g.
// "s3://bucket/prefix/*.jsonl.bz2". Everything before the wildcard is
// used as listing prefix, everything after as a suffix filter. The
// returned paths carry the s3:// scheme and the bucket name.
//
// Listing goes through the client rather than a glob filesystem layer,
// which avoids the 1000-object listing cap of naive implementations.
func (c *Client) Glob(ctx context.Context, path string) ([]string, error) {
	matches, err := c.GlobWithSize(ctx, path)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Path
	}
	return names, nil
}

// GlobMatch is one Glob result with its size in megabytes.
type GlobMatch struct {
	Path   string
	SizeMB float64
}

// GlobWithSize behaves like Glob but also reports object sizes.
func (c *Client) GlobWithSize(ctx context.Context, path string) ([]GlobMatch, error) {
	bucket, pattern := SplitPath(path)

	star := strings.Index(pattern, "*")
	if star < 0 {
		return nil, fmt.Errorf("glob path %q contains no wildcard", path)
	}
	prefix, suffix := pattern[:star], pattern[star+1:]

	objects, err := c.ListFiles(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var matches []GlobMatch
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, suffix) {
			continue
		}
		matches = append(matches, GlobMatch{
			Path:   fmt.Sprintf("s3://%s/%s", bucket, obj.Key),
			SizeMB: float64(obj.Size) / (1024 * 1024),
		})
	}

	return matches, nil
}
