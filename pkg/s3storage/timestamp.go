package s3storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/impresso/impresso-essentials/pkg/utils"
)

// ErrMetadataExists signals that the target metadata key is already set
// and force was not requested.
var ErrMetadataExists = fmt.Errorf("metadata key already exists")

// timestamp layouts per record key; all values are taken as UTC.
var knownTimestampLayouts = map[string][]string{
	"ts":        {"2006-01-02T15:04:05Z", "2006-01-02T15:04:05", "2006-01-02T15:04:05-07:00"},
	"cdt":       {"2006-01-02 15:04:05"},
	"timestamp": {"2006-01-02T15:04:05Z", "2006-01-02T15:04:05", "2006-01-02T15:04:05-07:00"},
}

// parseRecordTimestamp tries every known layout and normalizes to UTC.
func parseRecordTimestamp(value string) (time.Time, bool) {
	for _, layouts := range knownTimestampLayouts {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// ExtractLastTimestamp scans JSONL record lines for the latest
// timestamp under tsKey (falling back to the other known keys inside a
// record). With allLines unset, the first valid timestamp wins.
// Records without a parseable timestamp are skipped. When nothing is
// found, fallback is returned if non-zero.
func ExtractLastTimestamp(lines []string, tsKey string, allLines bool, fallback time.Time) (time.Time, error) {
	if _, ok := knownTimestampLayouts[tsKey]; !ok {
		return time.Time{}, fmt.Errorf("unknown timestamp key: %s", tsKey)
	}

	var latest time.Time
	skipped := 0

	for _, line := range lines {
		value := gjson.Get(line, tsKey).String()
		if value == "" {
			value = gjson.Get(line, "cdt").String()
		}
		if value == "" {
			value = gjson.Get(line, "timestamp").String()
		}
		if value == "" {
			skipped++
			continue
		}

		parsed, ok := parseRecordTimestamp(value)
		if !ok {
			skipped++
			utils.Warn("Skipping record with unrecognized timestamp", "value", value)
			continue
		}

		if !allLines {
			return parsed, nil
		}
		if parsed.After(latest) {
			latest = parsed
		}
	}

	if latest.IsZero() {
		if !fallback.IsZero() {
			utils.Warn("No valid timestamp found in records, using fallback",
				"fallback", fallback.Format(time.RFC3339))
			return fallback, nil
		}
		return time.Time{}, fmt.Errorf("no valid timestamp found in records (skipped %d)", skipped)
	}

	return latest, nil
}

// SetTimestampMetadata extracts the latest record timestamp from the
// .jsonl.bz2 archive at key and stores it as user metadata under
// metadataKey, via a metadata-replacing self-copy. The object's own
// last-modified time is the fallback when the records carry no usable
// timestamp. Returns ErrMetadataExists when the key is already present
// and force is unset.
func (c *Client) SetTimestampMetadata(ctx context.Context, bucket, key, metadataKey, tsKey string, allLines, force bool) (time.Time, error) {
	existing, lastModified, err := c.ObjectMetadata(ctx, bucket, key)
	if err != nil {
		return time.Time{}, err
	}

	if _, ok := existing[metadataKey]; ok && !force {
		return time.Time{}, ErrMetadataExists
	}

	lines, err := c.ReadJSONLines(ctx, bucket, key)
	if err != nil {
		return time.Time{}, err
	}

	latest, err := ExtractLastTimestamp(lines, tsKey, allLines, lastModified)
	if err != nil {
		return time.Time{}, err
	}

	updated := make(map[string]string, len(existing)+1)
	for k, v := range existing {
		updated[k] = v
	}
	updated[metadataKey] = latest.Format("2006-01-02T15:04:05Z")

	if err := c.CopyObject(ctx, bucket, key, bucket, key, updated); err != nil {
		return time.Time{}, fmt.Errorf("failed to update metadata on %s: %w", key, err)
	}

	return latest, nil
}

// ReportMissingMetadata lists every .jsonl.bz2 key under prefix that
// does not carry metadataKey in its user metadata.
func (c *Client) ReportMissingMetadata(ctx context.Context, bucket, prefix, metadataKey string) ([]string, error) {
	objects, err := c.ListFiles(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, obj := range objects {
		if !hasArchiveSuffix(obj.Key) {
			continue
		}
		metadata, _, err := c.ObjectMetadata(ctx, bucket, obj.Key)
		if err != nil {
			utils.Warn("Error checking metadata", "key", obj.Key, "error", err)
			missing = append(missing, obj.Key)
			continue
		}
		if _, ok := metadata[metadataKey]; !ok {
			missing = append(missing, obj.Key)
		}
	}

	return missing, nil
}

func hasArchiveSuffix(key string) bool {
	return len(key) > 10 && key[len(key)-10:] == ".jsonl.bz2"
}
