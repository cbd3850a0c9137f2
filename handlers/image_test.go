package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func pngFixture(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// newImageFixture serves /original/poster.png. A non-nil gate holds every
// upstream request until it is closed.
func newImageFixture(t *testing.T, gate chan struct{}) (*ImageHandler, *int32) {
	t.Helper()
	poster := pngFixture(t, 200, 300)
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if gate != nil {
			<-gate
		}
		if r.URL.Path != "/original/poster.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(poster)
	}))
	t.Cleanup(upstream.Close)

	return NewImageHandler(afero.NewMemMapFs(), "/cache", upstream.URL, upstream.Client()), &hits
}

func decodeJPEG(t *testing.T, body []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("response is not a jpeg: %v", err)
	}
	return img
}

func TestImageProxyResizesAndCaches(t *testing.T) {
	h, hits := newImageFixture(t, nil)

	rec := httptest.NewRecorder()
	h.Proxy(rec, httptest.NewRequest(http.MethodGet, "/api/images?path=/poster.png&w=100", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", ct)
	}
	if state := rec.Header().Get("X-Cache"); state != "MISS" {
		t.Fatalf("expected MISS, got %q", state)
	}

	img := decodeJPEG(t, rec.Body.Bytes())
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 150 {
		t.Fatalf("expected 100x150, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	again := httptest.NewRecorder()
	h.Proxy(again, httptest.NewRequest(http.MethodGet, "/api/images?path=/poster.png&w=100", nil))
	if again.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", again.Code)
	}
	if state := again.Header().Get("X-Cache"); state != "HIT" {
		t.Fatalf("expected HIT, got %q", state)
	}
	if !bytes.Equal(rec.Body.Bytes(), again.Body.Bytes()) {
		t.Fatal("cached body differs from rendered body")
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", n)
	}
}

func TestImageProxyKeepsSmallerOriginals(t *testing.T) {
	h, _ := newImageFixture(t, nil)

	rec := httptest.NewRecorder()
	h.Proxy(rec, httptest.NewRequest(http.MethodGet, "/api/images?path=/poster.png&w=500", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if w := decodeJPEG(t, rec.Body.Bytes()).Bounds().Dx(); w != 200 {
		t.Fatalf("expected original width 200, got %d", w)
	}
}

func TestImageProxyRejectsBadPaths(t *testing.T) {
	h, hits := newImageFixture(t, nil)

	for _, target := range []string{
		"/api/images",
		"/api/images?path=poster.png",
		"/api/images?path=/../secrets",
		"/api/images?path=/http://evil.example/x.png",
	} {
		rec := httptest.NewRecorder()
		h.Proxy(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Fatalf("expected no upstream fetch, got %d", n)
	}
}

func TestImageProxyPassesUpstreamStatus(t *testing.T) {
	h, _ := newImageFixture(t, nil)

	rec := httptest.NewRecorder()
	h.Proxy(rec, httptest.NewRequest(http.MethodGet, "/api/images?path=/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestImageProxySharedFetchSurvivesFirstCallerCancel(t *testing.T) {
	gate := make(chan struct{})
	h, hits := newImageFixture(t, gate)
	t.Cleanup(func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
	})

	const target = "/api/images?path=/poster.png&w=100"

	ctx, cancel := context.WithCancel(context.Background())
	first := httptest.NewRecorder()
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		h.Proxy(first, httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx))
	}()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(hits) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("upstream fetch never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	second := httptest.NewRecorder()
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		h.Proxy(second, httptest.NewRequest(http.MethodGet, target, nil))
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-firstDone:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	close(gate)
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never finished")
	}

	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 for the remaining caller, got %d", second.Code)
	}
	if w := decodeJPEG(t, second.Body.Bytes()).Bounds().Dx(); w != 100 {
		t.Fatalf("expected width 100, got %d", w)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("expected one shared upstream fetch, got %d", n)
	}
}
