package carousel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirAgassi/rizzly/internal/events"
)

// fakeSource replays a scripted sequence of snapshots.
type fakeSource struct {
	snaps    []Snapshot
	snapErr  error
	idx      int
	clicks   int
	clickErr error
}

func (f *fakeSource) Snapshot(ctx context.Context) (Snapshot, error) {
	if f.snapErr != nil {
		return Snapshot{}, f.snapErr
	}
	if f.idx >= len(f.snaps) {
		return Snapshot{Err: "no visible carousel"}, nil
	}
	return f.snaps[f.idx], nil
}

func (f *fakeSource) ClickNext(ctx context.Context) (bool, error) {
	if f.clickErr != nil {
		return false, f.clickErr
	}
	f.clicks++
	f.idx++
	return true, nil
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img" + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWalkerDeduplicatesByURL(t *testing.T) {
	server := imageServer(t)
	source := &fakeSource{snaps: []Snapshot{
		{ImageURL: server.URL + "/a.jpg"},
		{ImageURL: server.URL + "/b.jpg"},
		{ImageURL: server.URL + "/a.jpg"},
		{ImageURL: server.URL + "/c.jpg", IsEnd: true},
	}}
	bus := events.NewBus(nil)
	defer bus.Close()
	ch, cancel := bus.Subscribe()
	defer cancel()

	walker := NewWalker(source, server.Client(), bus, nil, time.Millisecond, false)
	sink := NewBufferSink()
	count, err := walker.Walk(context.Background(), 20, sink)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, sink.Images(), 3)

	var got []events.DownloadProgress
	for len(ch) > 0 {
		ev := <-ch
		got = append(got, ev.Payload.(events.DownloadProgress))
	}
	require.Len(t, got, 4)
	assert.Equal(t, events.DownloadProgress{ImageCount: 1}, got[0])
	assert.Equal(t, events.DownloadProgress{ImageCount: 3, IsComplete: true}, got[3])
}

func TestWalkerStopsAtMaxImages(t *testing.T) {
	server := imageServer(t)
	source := &fakeSource{snaps: []Snapshot{
		{ImageURL: server.URL + "/1.jpg"},
		{ImageURL: server.URL + "/2.jpg"},
		{ImageURL: server.URL + "/3.jpg"},
		{ImageURL: server.URL + "/4.jpg"},
	}}

	walker := NewWalker(source, server.Client(), nil, nil, time.Millisecond, false)
	sink := NewBufferSink()
	count, err := walker.Walk(context.Background(), 2, sink)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	// The walk stops without clicking past the cap.
	assert.Equal(t, 1, source.clicks)
}

func TestWalkerSoftStopsOnReadError(t *testing.T) {
	source := &fakeSource{snapErr: errors.New("tab crashed")}
	walker := NewWalker(source, http.DefaultClient, nil, nil, time.Millisecond, false)

	count, err := walker.Walk(context.Background(), 20, NewBufferSink())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWalkerSkipsFailedFetches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("img"))
	}))
	t.Cleanup(server.Close)

	source := &fakeSource{snaps: []Snapshot{
		{ImageURL: server.URL + "/broken.jpg"},
		{ImageURL: server.URL + "/ok.jpg", IsEnd: true},
	}}
	walker := NewWalker(source, server.Client(), nil, nil, time.Millisecond, false)
	sink := NewBufferSink()
	count, err := walker.Walk(context.Background(), 20, sink)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWalkerStopsOnDOMError(t *testing.T) {
	server := imageServer(t)
	source := &fakeSource{snaps: []Snapshot{
		{ImageURL: server.URL + "/a.jpg"},
		{Err: "no visible carousel"},
	}}
	walker := NewWalker(source, server.Client(), nil, nil, time.Millisecond, false)
	sink := NewBufferSink()
	count, err := walker.Walk(context.Background(), 20, sink)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWalkerRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := NewWalker(&fakeSource{}, http.DefaultClient, nil, nil, time.Millisecond, false)
	_, err := walker.Walk(ctx, 20, NewBufferSink())
	assert.ErrorIs(t, err, context.Canceled)
}
