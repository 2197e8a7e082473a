package rotation

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xtreemtech/twitter-engagement-bot/pkg/logger"
)

// ImageRotator serves campaign image URLs in strict round-robin order and
// persists the pool to a flat file so uploaded images survive restarts.
type ImageRotator struct {
	mu   sync.Mutex
	pool []string
	used []string
	path string
	log  *logger.Logger
}

// NewImageRotator loads the image pool from a newline-delimited file.
// A missing file means an empty pool; that is not an error.
func NewImageRotator(path string, log *logger.Logger) *ImageRotator {
	r := &ImageRotator{path: path, log: log.WithComponent("images")}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", path).Msg("Failed to read image pool file")
		}
		return r
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.pool = append(r.pool, line)
	}

	r.log.Info().Int("count", len(r.pool)).Str("path", path).Msg("Loaded campaign images")
	return r
}

// Add appends an image URL to the pool and rewrites the pool file.
// Returns false without mutating when the URL is malformed or already present.
// A persistence failure is logged but does not roll back the in-memory add.
func (r *ImageRotator) Add(ref string) bool {
	ref = strings.TrimSpace(ref)
	if !validImageURL(ref) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.pool {
		if existing == ref {
			return false
		}
	}

	r.pool = append(r.pool, ref)

	if err := r.persist(); err != nil {
		r.log.Error().Err(err).Str("path", r.path).Msg("Failed to persist image pool")
	}

	return true
}

// Next returns the next image URL in round-robin order, guaranteeing a full
// traversal of the pool before any repeat. The second return is false when
// the pool is empty.
func (r *ImageRotator) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pool) == 0 {
		return "", false
	}

	if len(r.used) == 0 || len(r.used) >= len(r.pool) {
		r.used = nil
	}

	available := subtract(r.pool, r.used)
	ref := available[0]
	r.used = append(r.used, ref)

	return ref, true
}

// All returns a copy of the pool in order.
func (r *ImageRotator) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pool...)
}

// Size returns the pool size.
func (r *ImageRotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool)
}

// persist rewrites the whole pool file. Caller holds the lock.
func (r *ImageRotator) persist() error {
	dir := filepath.Dir(r.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString("# Campaign image pool - one URL per line\n")
	for _, ref := range r.pool {
		b.WriteString(ref)
		b.WriteByte('\n')
	}

	return os.WriteFile(r.path, []byte(b.String()), 0644)
}

// validImageURL requires an absolute http or https URL.
func validImageURL(ref string) bool {
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
