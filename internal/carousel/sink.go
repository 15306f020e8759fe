package carousel

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Sink receives each downloaded image in discovery order.
type Sink interface {
	Put(ctx context.Context, index int, imageURL string, data []byte) error
}

// DiskSink writes images under a downloads directory.
type DiskSink struct {
	dir    string
	logger logging.Logger
}

func NewDiskSink(dir string, logger logging.Logger) *DiskSink {
	return &DiskSink{dir: dir, logger: logging.OrNop(logger)}
}

func (s *DiskSink) Put(_ context.Context, index int, imageURL string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	name := fmt.Sprintf("profile_image_%02d%s", index+1, imageExt(imageURL))
	dest := filepath.Join(s.dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	s.logger.Info("saved %s (%d bytes)", dest, len(data))
	return nil
}

func imageExt(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}

// BufferSink accumulates images as base64 for the vision analysis call site.
type BufferSink struct {
	mu     sync.Mutex
	images []string
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Put(_ context.Context, _ int, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, base64.StdEncoding.EncodeToString(data))
	return nil
}

// Images returns the collected base64 payloads in discovery order.
func (s *BufferSink) Images() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.images...)
}
