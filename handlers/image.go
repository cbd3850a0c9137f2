package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

var errImageSource = errors.New("image source error")

const renderTimeout = 30 * time.Second

// ImageHandler proxies catalog artwork, downscaling and caching it on disk.
type ImageHandler struct {
	fs      afero.Fs
	dir     string
	baseURL string
	httpc   *http.Client
	group   singleflight.Group
}

// NewImageHandler caches resized images under <cacheDir>/images on fs.
// baseURL is the catalog image host, e.g. https://image.tmdb.org/t/p.
func NewImageHandler(fs afero.Fs, cacheDir, baseURL string, httpc *http.Client) *ImageHandler {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	dir := filepath.Join(cacheDir, "images")
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[images] warning: could not create cache dir %s: %v", dir, err)
	}
	return &ImageHandler{
		fs:      fs,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

// Proxy serves GET /api/images?path=/abc.jpg&w=342&q=80.
// w is the target width (0 keeps the original), q the JPEG quality.
func (h *ImageHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	path := strings.TrimSpace(query.Get("path"))
	if !validImagePath(path) {
		http.Error(w, "invalid image path", http.StatusBadRequest)
		return
	}

	width := 0
	if raw := query.Get("w"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 2000 {
			width = v
		}
	}
	quality := 80
	if raw := query.Get("q"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= 100 {
			quality = v
		}
	}

	cachePath := filepath.Join(h.dir, h.cacheKey(path, width, quality)+".jpg")
	if data, err := afero.ReadFile(h.fs, cachePath); err == nil {
		writeImage(w, data, "HIT")
		return
	}

	// Concurrent misses for the same rendition share one fetch. The fetch
	// outlives any single caller; each caller stops waiting on its own cancel.
	ch := h.group.DoChan(cachePath, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), renderTimeout)
		defer cancel()
		return h.render(ctx, path, width, quality, cachePath)
	})

	var res singleflight.Result
	select {
	case <-r.Context().Done():
		return
	case res = <-ch:
	}
	if err := res.Err; err != nil {
		var status statusError
		if errors.As(err, &status) {
			http.Error(w, "image source error", status.code)
			return
		}
		http.Error(w, "failed to load image", http.StatusBadGateway)
		return
	}
	writeImage(w, res.Val.([]byte), "MISS")
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("%v: status %d", errImageSource, e.code)
}

func (e statusError) Unwrap() error { return errImageSource }

func (h *ImageHandler) render(ctx context.Context, path string, width, quality int, cachePath string) ([]byte, error) {
	source := h.baseURL + "/original" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpc.Do(req)
	if err != nil {
		log.Printf("[images] fetch error for %s: %v", source, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[images] fetch returned %d for %s", resp.StatusCode, source)
		return nil, statusError{code: resp.StatusCode}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		log.Printf("[images] decode error for %s: %v", source, err)
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if bounds := img.Bounds(); width > 0 && width < bounds.Dx() {
		height := bounds.Dy() * width / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	// A failed cache write still serves the rendered image.
	tmp := cachePath + ".tmp"
	if err := afero.WriteFile(h.fs, tmp, buf.Bytes(), 0o644); err != nil {
		log.Printf("[images] cache write error: %v", err)
	} else if err := h.fs.Rename(tmp, cachePath); err != nil {
		_ = h.fs.Remove(tmp)
		log.Printf("[images] cache rename error: %v", err)
	}

	return buf.Bytes(), nil
}

func (h *ImageHandler) cacheKey(path string, width, quality int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", path, width, quality)))
	return hex.EncodeToString(sum[:16])
}

func validImagePath(path string) bool {
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return false
	}
	return !strings.Contains(path, "..") && !strings.Contains(path, "://") && !strings.ContainsAny(path, "?#\\")
}

func writeImage(w http.ResponseWriter, data []byte, cacheState string) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=2592000")
	w.Header().Set("X-Cache", cacheState)
	w.Write(data)
}
