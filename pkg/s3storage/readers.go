package s3storage

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DefaultTextFields are the record fields kept by ReadTextJSONLines
// when no explicit selection is given.
var DefaultTextFields = []string{"id", "pp", "ts", "lg", "tp", "t", "ft"}

// ReadJSONLines downloads a .jsonl.bz2 archive and returns its
// non-empty lines.
func (c *Client) ReadJSONLines(ctx context.Context, bucket, key string) ([]string, error) {
	data, err := c.DownloadFile(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %s: %w", key, bucket, err)
	}
	return decompressLines(data, key)
}

// StreamJSONLines downloads a .jsonl.bz2 archive and sends its
// non-empty lines to out. The caller owns the channel; sending stops
// early when ctx is cancelled. Used to feed aggregation without
// holding all lines in one slice per caller.
func (c *Client) StreamJSONLines(ctx context.Context, bucket, key string, out chan<- string) error {
	lines, err := c.ReadJSONLines(ctx, bucket, key)
	if err != nil {
		return err
	}
	for _, line := range lines {
		select {
		case out <- line:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ReadTextJSONLines behaves like ReadJSONLines but reduces each record
// to the given fields (DefaultTextFields when nil) and drops records
// with an empty full text. This is the starting point for purely
// textual processing.
func (c *Client) ReadTextJSONLines(ctx context.Context, bucket, key string, fieldsToKeep []string) ([]string, error) {
	if fieldsToKeep == nil {
		fieldsToKeep = DefaultTextFields
	}
	keep := make(map[string]bool, len(fieldsToKeep))
	for _, f := range fieldsToKeep {
		keep[f] = true
	}

	lines, err := c.ReadJSONLines(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	var reduced []string
	for _, line := range lines {
		var record map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("malformed record in %s: %w", key, err)
		}

		var fullText string
		if raw, ok := record["ft"]; ok {
			if err := json.Unmarshal(raw, &fullText); err != nil {
				return nil, fmt.Errorf("malformed ft field in %s: %w", key, err)
			}
		}
		if fullText == "" {
			continue
		}

		filtered := make(map[string]json.RawMessage, len(keep))
		for k, v := range record {
			if keep[k] {
				filtered[k] = v
			}
		}

		out, err := json.Marshal(filtered)
		if err != nil {
			return nil, err
		}
		reduced = append(reduced, string(out))
	}

	return reduced, nil
}

// decompressLines splits a bz2-compressed archive into non-empty lines.
func decompressLines(data []byte, key string) ([]string, error) {
	var reader io.Reader = bytes.NewReader(data)
	if strings.HasSuffix(key, ".bz2") {
		reader = bzip2.NewReader(reader)
	}

	var lines []string
	scanner := bufio.NewScanner(reader)
	// archives hold one record per line; some records are large
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", key, err)
	}

	return lines, nil
}
