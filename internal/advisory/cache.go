package advisory

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/fenilsonani/diskwise/pkg/utils"
)

// responseCache stores normalized advisory responses keyed by the SHA256 of
// the request payload. The whole file is read once at construction and
// rewritten wholesale on every store; a corrupt or missing file just means an
// empty cache.
type responseCache struct {
	mu      sync.Mutex
	path    string
	enabled bool
	entries map[string]json.RawMessage
}

func newResponseCache(path string, enabled bool) *responseCache {
	c := &responseCache{
		path:    path,
		enabled: enabled,
		entries: make(map[string]json.RawMessage),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return c
	}
	c.entries = entries
	return c
}

// Key derives the cache key for a serialized request payload.
func (c *responseCache) Key(payload []byte) string {
	return utils.HashBytes(payload)
}

func (c *responseCache) Get(key string) (json.RawMessage, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	return entry, ok
}

func (c *responseCache) Put(key string, value json.RawMessage) error {
	if !c.enabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
