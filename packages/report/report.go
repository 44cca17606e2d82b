// Package report collects raw request/response artifacts for post-hoc inspection.
//
// Sinks are fire-and-forget: Attach never returns an error and never panics
// into the caller, so a broken sink cannot fail a scenario.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const (
	MediaJSON = "application/json"
	MediaText = "text/plain"
)

// Attachment is one named artifact.
type Attachment struct {
	Label     string
	MediaType string
	Payload   string
	Extension string
}

// Sink receives attachments.
type Sink interface {
	Attach(a Attachment)
}

// JSON builds a JSON attachment.
func JSON(label, payload string) Attachment {
	return Attachment{Label: label, MediaType: MediaJSON, Payload: payload, Extension: ".json"}
}

// Text builds a plain-text attachment.
func Text(label, payload string) Attachment {
	return Attachment{Label: label, MediaType: MediaText, Payload: payload, Extension: ".txt"}
}

// WarnFunc reports non-fatal sink problems
type WarnFunc func(format string, args ...any)

// StderrWarn prints a yellow "Warning:" line to stderr.
func StderrWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("Warning:"), fmt.Sprintf(format, args...))
}

// Nop discards attachments.
type Nop struct{}

func (Nop) Attach(Attachment) {}

// MemorySink keeps attachments in memory.
type MemorySink struct {
	mu    sync.Mutex
	items []Attachment
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Attach(a Attachment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, a)
}

// Items returns a copy of everything attached so far.
func (m *MemorySink) Items() []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Attachment, len(m.items))
	copy(out, m.items)
	return out
}

// Find returns the first attachment with the given label.
func (m *MemorySink) Find(label string) (Attachment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.Label == label {
			return a, true
		}
	}
	return Attachment{}, false
}

// Multi fans out to several sinks.
type Multi []Sink

func (m Multi) Attach(a Attachment) {
	for _, s := range m {
		if s != nil {
			s.Attach(a)
		}
	}
}

// Guard wraps a sink so panics inside it are reported through warn and swallowed.
func Guard(s Sink, warn WarnFunc) Sink {
	if warn == nil {
		warn = StderrWarn
	}
	return guarded{sink: s, warn: warn}
}

type guarded struct {
	sink Sink
	warn WarnFunc
}

func (g guarded) Attach(a Attachment) {
	defer func() {
		if r := recover(); r != nil {
			g.warn("attachment %q dropped: %v", a.Label, r)
		}
	}()
	g.sink.Attach(a)
}

// DirSink writes each attachment to its own file under dir, numbered in
// attach order: 01-rest-response-for-id-1.json.
type DirSink struct {
	dir  string
	warn WarnFunc
	mu   sync.Mutex
	seq  int
}

type DirOption func(*DirSink)

func WithWarnFunc(fn WarnFunc) DirOption {
	return func(d *DirSink) {
		d.warn = fn
	}
}

func NewDirSink(dir string, opts ...DirOption) *DirSink {
	d := &DirSink{dir: dir, warn: StderrWarn}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DirSink) Dir() string {
	return d.dir
}

func (d *DirSink) Attach(a Attachment) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		d.warn("cannot create attachment directory %s: %v", d.dir, err)
		return
	}

	ext := a.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	path := filepath.Join(d.dir, fmt.Sprintf("%02d-%s%s", seq, Slug(a.Label), ext))
	if err := os.WriteFile(path, []byte(a.Payload), 0644); err != nil {
		d.warn("cannot write attachment %q: %v", a.Label, err)
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a label into a file-name-safe string.
func Slug(label string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(label), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "attachment"
	}
	return s
}
