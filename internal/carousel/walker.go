package carousel

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AmirAgassi/rizzly/internal/events"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

const maxImageBytes = 20 << 20

// Walker steps through one profile's photos front to back, feeding each new
// image to its sink and reporting progress on the bus. A run terminates on
// end-of-carousel, the image cap, a read failure, or context cancellation;
// partial results are valid output. Runs are not restartable.
type Walker struct {
	source Source
	fetch  *http.Client
	bus    *events.Bus
	logger logging.Logger

	// settle is how long the page gets to animate after a next-click
	// before the slide is read again.
	settle time.Duration
	// emitBase64 attaches image bytes to progress events, used by the
	// analysis call site so the UI can preview photos as they arrive.
	emitBase64 bool
}

func NewWalker(source Source, fetch *http.Client, bus *events.Bus, logger logging.Logger, settle time.Duration, emitBase64 bool) *Walker {
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	return &Walker{
		source:     source,
		fetch:      fetch,
		bus:        bus,
		logger:     logging.OrNop(logger),
		settle:     settle,
		emitBase64: emitBase64,
	}
}

// Walk traverses the carousel until it ends or max images are collected.
// Returns the number of images delivered to the sink.
func (w *Walker) Walk(ctx context.Context, max int, sink Sink) (int, error) {
	seen := make(map[string]struct{})
	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		snap, err := w.source.Snapshot(ctx)
		if err != nil {
			// Bridge failure kills the run, not the process.
			w.logger.Warn("carousel read failed, stopping walk with %d images: %v", count, err)
			break
		}
		if snap.Err != "" {
			w.logger.Info("carousel walk stopped: %s", snap.Err)
			break
		}

		if snap.ImageURL != "" {
			if _, dup := seen[snap.ImageURL]; !dup {
				seen[snap.ImageURL] = struct{}{}
				if data, err := w.download(ctx, snap.ImageURL); err != nil {
					w.logger.Warn("image fetch failed, skipping: %v", err)
				} else if err := sink.Put(ctx, count, snap.ImageURL, data); err != nil {
					w.logger.Warn("image sink rejected %s: %v", snap.ImageURL, err)
				} else {
					count++
					w.publishProgress(count, data, false)
				}
			}
		}

		if snap.IsEnd {
			break
		}
		if max > 0 && count >= max {
			break
		}

		clicked, err := w.source.ClickNext(ctx)
		if err != nil {
			w.logger.Warn("carousel advance failed, stopping walk: %v", err)
			break
		}
		if !clicked {
			break
		}

		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-time.After(w.settle):
		}
	}

	w.publishProgress(count, nil, true)
	return count, nil
}

func (w *Walker) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.fetch.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image fetch returned %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func (w *Walker) publishProgress(count int, data []byte, complete bool) {
	if w.bus == nil {
		return
	}
	progress := events.DownloadProgress{ImageCount: count, IsComplete: complete}
	if w.emitBase64 && len(data) > 0 {
		progress.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	}
	w.bus.PublishDownloadProgress(progress)
}
