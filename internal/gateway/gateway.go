package gateway

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"sync"

	"iruka_console/internal/storage"
	"iruka_console/internal/storage/objstore"

	"github.com/PuerkitoBio/goquery"
)

const (
	entryFileName   = "index.html"
	deleteBatchSize = 10
)

// Gateway turns uploaded ZIP archives into directories of static assets
// at deterministic storage paths and composes the public play URLs.
type Gateway struct {
	store   objstore.Store
	cdnBase string
	log     *slog.Logger
}

func New(store objstore.Store, cdnBase string, log *slog.Logger) *Gateway {
	return &Gateway{
		store:   store,
		cdnBase: strings.TrimRight(cdnBase, "/"),
		log:     log,
	}
}

type ExtractResult struct {
	URL        string   `json:"url"`
	EntryFile  string   `json:"entry_file"`
	EntryTitle string   `json:"entry_title"`
	Files      []string `json:"files"`
	TotalSize  int64    `json:"total_size"`
}

// PublicURL joins the CDN base with storage path segments.
func (g *Gateway) PublicURL(parts ...string) string {
	return g.cdnBase + "/" + path.Join(parts...)
}

// ExtractZip reads the ZIP object at storagePath/fileName, locates the
// game's root directory and uploads every file under it, re-based, to
// storagePath. The root is the directory of the shallowest entry named
// index.html (case-insensitive; ties broken by archive order). Game
// archives come from many toolchains (raw HTML, dist/, build/, nested
// exports) and cannot be assumed to share a layout. Files outside the
// detected root are discarded.
func (g *Gateway) ExtractZip(ctx context.Context, storagePath, fileName string) (*ExtractResult, error) {
	const op = "gateway.ExtractZip"

	data, err := g.store.Get(ctx, path.Join(storagePath, fileName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: read archive: %v", op, storage.ErrExtraction, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: open archive: %v", op, storage.ErrExtraction, err)
	}

	entryName, ok := findEntryPoint(zr)
	if !ok {
		return nil, fmt.Errorf("%s: %w: no %s in archive", op, storage.ErrExtraction, entryFileName)
	}

	prefix := ""
	if dir := path.Dir(entryName); dir != "." {
		prefix = dir + "/"
	}

	var (
		uploaded   []string
		total      int64
		entryRel   = strings.TrimPrefix(entryName, prefix)
		entryTitle string
	)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalizeName(f.Name)
		// path.Clean keeps a leading ..; such an entry would resolve
		// outside storagePath and overwrite another game's objects
		if name == ".." || strings.HasPrefix(name, "../") {
			g.cleanupPartial(ctx, storagePath, uploaded)
			return nil, fmt.Errorf("%s: %w: entry %s escapes the archive root", op, storage.ErrExtraction, f.Name)
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(name, prefix)
		if rel == "" {
			continue
		}

		content, err := readZipFile(f)
		if err != nil {
			g.cleanupPartial(ctx, storagePath, uploaded)
			return nil, fmt.Errorf("%s: %w: read %s: %v", op, storage.ErrExtraction, rel, err)
		}

		if err := g.store.Put(ctx, path.Join(storagePath, rel), content, contentTypeFor(rel)); err != nil {
			g.cleanupPartial(ctx, storagePath, uploaded)
			return nil, fmt.Errorf("%s: %w: upload %s: %v", op, storage.ErrExtraction, rel, err)
		}

		if rel == entryRel {
			entryTitle = sniffTitle(content)
		}

		uploaded = append(uploaded, rel)
		total += int64(len(content))
	}

	return &ExtractResult{
		URL:        g.PublicURL(storagePath, entryRel),
		EntryFile:  entryRel,
		EntryTitle: entryTitle,
		Files:      uploaded,
		TotalSize:  total,
	}, nil
}

// DeleteFiles removes the given relative paths under storagePath in
// concurrency-limited batches. It continues past individual failures and
// reports how many objects were deleted plus the errors encountered.
func (g *Gateway) DeleteFiles(ctx context.Context, storagePath string, relPaths []string) (int, []error) {
	var (
		sem     = make(chan struct{}, deleteBatchSize)
		wg      sync.WaitGroup
		mu      sync.Mutex
		deleted int
		errs    []error
	)

	for _, rel := range relPaths {
		sem <- struct{}{}
		wg.Add(1)
		go func(rel string) {
			defer func() {
				<-sem
				wg.Done()
			}()

			if err := g.store.Delete(ctx, path.Join(storagePath, rel)); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", rel, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			deleted++
			mu.Unlock()
		}(rel)
	}

	wg.Wait()
	return deleted, errs
}

func (g *Gateway) cleanupPartial(ctx context.Context, storagePath string, uploaded []string) {
	if len(uploaded) == 0 {
		return
	}
	deleted, errs := g.DeleteFiles(ctx, storagePath, uploaded)
	g.log.Warn(
		"cleaned up partially extracted build",
		slog.String("storage_path", storagePath),
		slog.Int("deleted", deleted),
		slog.Int("errors", len(errs)))
}

// findEntryPoint returns the normalized archive path of the shallowest
// entry whose base name is index.html, in archive order.
func findEntryPoint(zr *zip.Reader) (string, bool) {
	best := ""
	bestDepth := -1
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalizeName(f.Name)
		if !strings.EqualFold(path.Base(name), entryFileName) {
			continue
		}
		depth := strings.Count(name, "/")
		if bestDepth == -1 || depth < bestDepth {
			best = name
			bestDepth = depth
		}
	}
	return best, bestDepth != -1
}

func normalizeName(name string) string {
	return path.Clean(strings.ReplaceAll(name, "\\", "/"))
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func contentTypeFor(rel string) string {
	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// sniffTitle pulls the <title> out of the entry document, used as the
// version's display hint in the console.
func sniffTitle(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
