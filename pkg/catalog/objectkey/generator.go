package objectkey

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix namespaces product images in the blob store.
const DefaultPrefix = "products"

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for an uploaded file
	GenerateKey(fileName string) string
}

// TimestampGenerator builds keys of the form
// <prefix>/<millis>-<uuid>-<sanitized file name>. The millisecond component
// never repeats or goes backwards within one generator, and the UUID keeps
// keys from separate processes apart.
type TimestampGenerator struct {
	Prefix string
	Now    func() time.Time
	Random func() string

	last atomic.Int64
}

// NewTimestampGenerator returns a generator using prefix, wall-clock time and
// random UUIDs.
func NewTimestampGenerator(prefix string) *TimestampGenerator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &TimestampGenerator{
		Prefix: strings.Trim(prefix, "/"),
		Now:    time.Now,
		Random: uuid.NewString,
	}
}

func (g *TimestampGenerator) GenerateKey(fileName string) string {
	name := sanitizeFilename(fileName)
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%d-%s-%s", g.Prefix, g.nextMillis(), g.Random(), name)
}

// nextMillis returns the current Unix millisecond, bumped past the last value
// handed out.
func (g *TimestampGenerator) nextMillis() int64 {
	for {
		last := g.last.Load()
		now := g.Now().UnixMilli()
		if now <= last {
			now = last + 1
		}
		if g.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(fileName string) string
}

func NewCustomFuncGenerator(fn func(fileName string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(fileName string) string {
	return g.GenerateFunc(fileName)
}

// sanitizeFilename keeps the base name and replaces characters that are
// problematic in object keys or filesystem paths.
func sanitizeFilename(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	replacer := strings.NewReplacer(
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		"#", "_",
		"%", "_",
		"+", "_",
	)
	name := replacer.Replace(strings.TrimSpace(filename))
	return strings.TrimLeft(name, ".")
}
