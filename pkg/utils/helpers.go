package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// Timestamp returns an ISO-formatted timestamp of the current time.
//
// With withSpace set, the "2006-01-02 15:04:05" layout is used instead
// of the default "2006-01-02T15:04:05Z".
func Timestamp(withSpace bool) string {
	if withSpace {
		return time.Now().UTC().Format("2006-01-02 15:04:05")
	}
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// Timer is a basic two-level stopwatch: Tick measures the time since
// the previous tick, Stop the time since creation.
type Timer struct {
	start        time.Time
	intermediate time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	now := time.Now()
	return &Timer{start: now, intermediate: now}
}

// Tick returns the elapsed time since the last tick and resets it.
func (t *Timer) Tick() time.Duration {
	elapsed := time.Since(t.intermediate)
	t.intermediate = time.Now()
	return elapsed
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Chunk splits a slice into successive size-sized chunks. The last
// chunk may be shorter.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		return [][]T{items}
	}
	var chunks [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// BytesTo converts a byte count to the given unit using base 1024.
// Supported units: "k", "m", "g", "t", "p", "e".
func BytesTo(bytesNb int64, toUnit string) (float64, error) {
	units := map[string]int{"k": 1, "m": 2, "g": 3, "t": 4, "p": 5, "e": 6}
	exp, ok := units[toUnit]
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", toUnit)
	}
	result := float64(bytesNb)
	for i := 0; i < exp; i++ {
		result /= 1024
	}
	return result, nil
}

// UserConfirmation asks a yes/no question on stdin and returns the
// answer. The default answer, used when the user just hits enter,
// must be "yes", "no" or empty.
func UserConfirmation(question, defaultAnswer string) (bool, error) {
	valid := map[string]bool{"yes": true, "y": true, "no": false, "n": false}

	var prompt string
	switch defaultAnswer {
	case "":
		prompt = " [y/n] "
	case "yes":
		prompt = " [Y/n] "
	case "no":
		prompt = " [y/N] "
	default:
		return false, fmt.Errorf("invalid default answer: %q", defaultAnswer)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, question+prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("failed to read answer: %w", err)
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		if defaultAnswer != "" && choice == "" {
			return valid[defaultAnswer], nil
		}
		if answer, ok := valid[choice]; ok {
			return answer, nil
		}
		fmt.Fprintln(os.Stdout, "Please respond with 'yes' or 'no' (or 'y' or 'n').")
	}
}
