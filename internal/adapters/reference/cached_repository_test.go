package reference

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	apperrors "github.com/ethan-saco/radiololgy-ct-protocoling/pkg/errors"
)

func writeBroken(path string) error {
	return os.WriteFile(path, []byte("Name,IV Contrast\nbroken,C+\n"), 0o644)
}

type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.items[key]; ok {
		return data, nil
	}
	return nil, apperrors.NewNotFoundError("cache miss")
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok, nil
}

func (c *fakeCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func waitForSet(t *testing.T, cache *fakeCache) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cache.setCount() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("cache was never populated")
}

func TestCachedProtocolRepository_PopulatesAndServesFromCache(t *testing.T) {
	path := writeReference(t,
		"Protocol,IV Contrast,Oral Contrast\n"+
			"Appendicitis,C+,None\n")
	cache := newFakeCache()
	repo := NewCachedProtocolRepository(NewCSVLoader(path), cache, path, 300)

	table, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 1 {
		t.Fatalf("len = %d", table.Len())
	}
	waitForSet(t, cache)

	// Second load must come from cache: break the file to prove it.
	if err := writeBroken(path); err != nil {
		t.Fatal(err)
	}
	table, err = repo.Load(context.Background())
	if err != nil {
		t.Fatalf("cached load failed: %v", err)
	}
	if _, ok := table.GetByName("Appendicitis"); !ok {
		t.Error("cached table missing the original row")
	}
}

func TestCachedProtocolRepository_FallsThroughOnCorruptEntry(t *testing.T) {
	path := writeReference(t,
		"Protocol,IV Contrast,Oral Contrast\n"+
			"Appendicitis,C+,None\n")
	cache := newFakeCache()
	repo := NewCachedProtocolRepository(NewCSVLoader(path), cache, path, 300).(*CachedProtocolRepository)

	cache.items[repo.cacheKey] = []byte("{not json")

	table, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 1 {
		t.Errorf("len = %d, want loader fallback", table.Len())
	}
}

func TestCachedProtocolRepository_PropagatesReferenceError(t *testing.T) {
	cache := newFakeCache()
	repo := NewCachedProtocolRepository(NewCSVLoader("/nonexistent/reference.csv"), cache, "/nonexistent/reference.csv", 300)

	_, err := repo.Load(context.Background())
	if !apperrors.IsReference(err) {
		t.Errorf("err = %v, want reference error", err)
	}
}

func TestCachedProtocolRepository_GetByName(t *testing.T) {
	path := writeReference(t,
		"Protocol,IV Contrast,Oral Contrast\n"+
			"Renal colic,C-,None\n")
	cache := newFakeCache()
	repo := NewCachedProtocolRepository(NewCSVLoader(path), cache, path, 300)

	p, err := repo.GetByName(context.Background(), "renal colic")
	if err != nil {
		t.Fatal(err)
	}
	if p.IVContrast != "C-" {
		t.Errorf("iv contrast = %q", p.IVContrast)
	}

	if _, err := repo.GetByName(context.Background(), "absent"); !apperrors.IsNotFound(err) {
		t.Errorf("err = %v, want not-found", err)
	}
}
