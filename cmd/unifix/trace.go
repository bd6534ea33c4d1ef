package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/quailyquaily/unifix/jsonrepair"
)

const (
	traceFileTimeLayout = "2006-01-02_15-04-05"
	traceLineTimeLayout = "2006-01-02 15:04:05"
)

type traceEntry struct {
	Label   string
	Payload string
	At      time.Time
}

// traceRecorder collects the provider and generator debug payloads of a run
// so they can be written out as a markdown dump.
type traceRecorder struct {
	mu      sync.Mutex
	entries []traceEntry
}

func (r *traceRecorder) DebugFn(label, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, traceEntry{Label: label, Payload: payload, At: time.Now()})
}

func (r *traceRecorder) Entries() []traceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]traceEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// writeTrace writes entries to a timestamped file in dir. Nothing is written
// when no fallback call was traced.
func writeTrace(dir string, entries []traceEntry, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create trace dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, traceFileName(now))
	if err := os.WriteFile(path, []byte(formatTrace(entries)), 0o644); err != nil {
		return "", fmt.Errorf("write trace file %q: %w", path, err)
	}
	return path, nil
}

func traceFileName(now time.Time) string {
	return now.Format(traceFileTimeLayout) + ".md"
}

func formatTrace(entries []traceEntry) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "## %q\n", e.Label)
		fmt.Fprintf(&b, "* time: %s\n", e.At.Format(traceLineTimeLayout))
		b.WriteString("* payload: |\n")
		payload := prettyPayload(e.Payload)
		b.WriteString(payload)
		if !strings.HasSuffix(payload, "\n") {
			b.WriteByte('\n')
		}
		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// prettyPayload indents payloads that are already valid JSON and leaves
// everything else, prompts included, as written.
func prettyPayload(payload string) string {
	if res := jsonrepair.Parse(strings.TrimSpace(payload)); !res.Success {
		return payload
	}
	out, err := jsonrepair.Prettify(payload, 2)
	if err != nil {
		return payload
	}
	return out
}
