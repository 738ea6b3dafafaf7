package geocoder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"
	gocache "github.com/patrickmn/go-cache"

	"pothole-service/models"
)

// placeCache is the coordinate-to-place cache: an in-memory layer for hot
// lookups plus a JSON file that survives restarts. Only confirmed
// resolutions are written; placeholders and sentinels never enter it.
type placeCache struct {
	mem *gocache.Cache

	mu   sync.Mutex // serializes disk writes
	path string
}

func newPlaceCache(path string) (*placeCache, error) {
	c := &placeCache{
		mem:  gocache.New(gocache.NoExpiration, 0),
		path: path,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *placeCache) load() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading geocoding cache %s: %w", c.path, err)
	}

	entries := map[string]models.PlaceInfo{}
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt cache is not fatal, just cold.
		log.Warnf("Ignoring corrupt geocoding cache %s: %v", c.path, err)
		return nil
	}
	for k, v := range entries {
		c.mem.Set(k, v, gocache.NoExpiration)
	}
	log.Infof("Loaded %d cached place names from %s", len(entries), c.path)
	return nil
}

func (c *placeCache) get(key string) (models.PlaceInfo, bool) {
	v, ok := c.mem.Get(key)
	if !ok {
		return models.PlaceInfo{}, false
	}
	return v.(models.PlaceInfo), true
}

// put stores a confirmed resolution and writes the cache through to disk.
func (c *placeCache) put(key string, place models.PlaceInfo) {
	c.mem.Set(key, place, gocache.NoExpiration)

	if c.path == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := map[string]models.PlaceInfo{}
	for k, item := range c.mem.Items() {
		entries[k] = item.Object.(models.PlaceInfo)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Errorf("Marshaling geocoding cache: %w", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		log.Errorf("Creating geocoding cache dir: %w", err)
		return
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		log.Errorf("Writing geocoding cache %s: %w", c.path, err)
	}
}

func (c *placeCache) len() int {
	return c.mem.ItemCount()
}
