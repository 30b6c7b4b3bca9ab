package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thingsiplay/emojicherrypick/internal/errors"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "cache")
	return Cache{
		SourcePath:   filepath.Join(dir, "emojis.json"),
		FilteredPath: filepath.Join(dir, "emojis.cherry"),
	}
}

func newDBServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestEnsureSource_DownloadsOnce(t *testing.T) {
	srv, hits := newDBServer(t, http.StatusOK, twoEmojiDB)
	cache := newTestCache(t)
	fetcher := NewHTTPFetcher(5*time.Second, "emojicherrypick-test")
	ctx := context.Background()

	downloaded, err := cache.EnsureSource(ctx, fetcher, srv.URL, false)
	if err != nil {
		t.Fatalf("EnsureSource() error = %v", err)
	}
	if !downloaded {
		t.Fatalf("EnsureSource() downloaded = false, want true")
	}

	downloaded, err = cache.EnsureSource(ctx, fetcher, srv.URL, false)
	if err != nil {
		t.Fatalf("EnsureSource() second call error = %v", err)
	}
	if downloaded {
		t.Errorf("EnsureSource() second call downloaded = true, want false")
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("server hits = %d, want 1", atomic.LoadInt32(hits))
	}

	data, err := os.ReadFile(cache.SourcePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != twoEmojiDB {
		t.Errorf("cached source differs from served body")
	}
}

func TestEnsureSource_FetchFailureWritesNothing(t *testing.T) {
	srv, _ := newDBServer(t, http.StatusInternalServerError, "boom")
	cache := newTestCache(t)

	_, err := cache.EnsureSource(context.Background(), NewHTTPFetcher(5*time.Second, ""), srv.URL, false)
	if !errors.Is(err, errors.ErrFetchFailed) {
		t.Fatalf("EnsureSource() error = %v, want FETCH_FAILED", err)
	}
	if _, statErr := os.Stat(cache.SourcePath); !os.IsNotExist(statErr) {
		t.Errorf("source file exists after failed fetch")
	}
	if _, statErr := os.Stat(cache.FilteredPath); !os.IsNotExist(statErr) {
		t.Errorf("filtered file exists after failed fetch")
	}
}

func TestEnsureSource_MalformedPayloadWritesNothing(t *testing.T) {
	srv, _ := newDBServer(t, http.StatusOK, `{"emojis":[{"emoji":"x"}]}`)
	cache := newTestCache(t)

	_, err := cache.EnsureSource(context.Background(), NewHTTPFetcher(5*time.Second, ""), srv.URL, false)
	if !errors.Is(err, errors.ErrCatalogMalformed) {
		t.Fatalf("EnsureSource() error = %v, want CATALOG_MALFORMED", err)
	}
	if _, statErr := os.Stat(cache.SourcePath); !os.IsNotExist(statErr) {
		t.Errorf("source file exists after malformed payload")
	}
}

func TestEnsureSource_OfflineSkipsDownload(t *testing.T) {
	srv, hits := newDBServer(t, http.StatusOK, twoEmojiDB)
	cache := newTestCache(t)

	downloaded, err := cache.EnsureSource(context.Background(), NewHTTPFetcher(time.Second, ""), srv.URL, true)
	if err != nil {
		t.Fatalf("EnsureSource() error = %v", err)
	}
	if downloaded || atomic.LoadInt32(hits) != 0 {
		t.Errorf("offline EnsureSource() downloaded = %v, hits = %d", downloaded, atomic.LoadInt32(hits))
	}
}

func TestEnsureSource_InvalidatesFiltered(t *testing.T) {
	srv, _ := newDBServer(t, http.StatusOK, twoEmojiDB)
	cache := newTestCache(t)
	if err := os.MkdirAll(filepath.Dir(cache.FilteredPath), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(cache.FilteredPath, []byte("stale"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := cache.EnsureSource(context.Background(), NewHTTPFetcher(time.Second, ""), srv.URL, false); err != nil {
		t.Fatalf("EnsureSource() error = %v", err)
	}
	if _, err := os.Stat(cache.FilteredPath); !os.IsNotExist(err) {
		t.Errorf("stale filtered catalog survived a fresh download")
	}
}

func TestEnsureFiltered(t *testing.T) {
	cache := newTestCache(t)
	if err := os.MkdirAll(filepath.Dir(cache.SourcePath), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(cache.SourcePath, []byte(twoEmojiDB), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	created, err := cache.EnsureFiltered(true)
	if err != nil {
		t.Fatalf("EnsureFiltered() error = %v", err)
	}
	if !created {
		t.Fatalf("EnsureFiltered() created = false, want true")
	}

	data, err := os.ReadFile(cache.FilteredPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "😀 grinning face ~ Smileys & Emotion\n🖕 middle finger ~ People & Body (finger)"
	if string(data) != want {
		t.Errorf("filtered catalog = %q, want %q", data, want)
	}
}

func TestEnsureFiltered_NeverOverwrites(t *testing.T) {
	cache := newTestCache(t)
	if err := os.MkdirAll(filepath.Dir(cache.SourcePath), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(cache.SourcePath, []byte(twoEmojiDB), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(cache.FilteredPath, []byte("🐱 cat ~ Animals"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	created, err := cache.EnsureFiltered(true)
	if err != nil {
		t.Fatalf("EnsureFiltered() error = %v", err)
	}
	if created {
		t.Errorf("EnsureFiltered() created = true, want false")
	}
	data, _ := os.ReadFile(cache.FilteredPath)
	if string(data) != "🐱 cat ~ Animals" {
		t.Errorf("filtered catalog was overwritten: %q", data)
	}
}

func TestEnsureFiltered_MalformedSourceWritesNothing(t *testing.T) {
	cache := newTestCache(t)
	if err := os.MkdirAll(filepath.Dir(cache.SourcePath), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(cache.SourcePath, []byte(`{"emojis":[{"name":"x"}]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := cache.EnsureFiltered(true); !errors.Is(err, errors.ErrCatalogMalformed) {
		t.Fatalf("EnsureFiltered() error = %v, want CATALOG_MALFORMED", err)
	}
	if _, err := os.Stat(cache.FilteredPath); !os.IsNotExist(err) {
		t.Errorf("partial filtered catalog written")
	}
}

func TestEnsureFiltered_MissingSourceOrDisabled(t *testing.T) {
	cache := newTestCache(t)
	created, err := cache.EnsureFiltered(true)
	if err != nil || created {
		t.Errorf("EnsureFiltered() without source = %v, %v; want false, nil", created, err)
	}

	cache.FilteredPath = ""
	created, err = cache.EnsureFiltered(true)
	if err != nil || created {
		t.Errorf("EnsureFiltered() disabled = %v, %v; want false, nil", created, err)
	}
}

func TestWipe(t *testing.T) {
	cache := newTestCache(t)
	if err := os.MkdirAll(filepath.Dir(cache.SourcePath), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	for _, p := range []string{cache.SourcePath, cache.FilteredPath} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	if err := cache.Wipe(); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}
	for _, p := range []string{cache.SourcePath, cache.FilteredPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after Wipe()", filepath.Base(p))
		}
	}
	if err := cache.Wipe(); err != nil {
		t.Errorf("Wipe() on empty cache error = %v", err)
	}
}
