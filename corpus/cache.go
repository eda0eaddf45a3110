package corpus

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/sha3"

	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

// Current schema version - increment when CachedResult changes.
const cacheSchemaVersion uint16 = 1

const gonumPath = "gonum.org/v1/gonum"

// Cache stores clean replay outcomes on disk keyed by CacheKey.
// Safe for concurrent use. A nil *Cache never hits and ignores writes.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CachedResult is the stored outcome of one invocation.
type CachedResult struct {
	Schema   uint16
	Harness  string
	Code     int
	Skipped  bool
	Consumed int
	Rejected bool
}

// Result converts r back to a harness result.
func (r *CachedResult) Result() harness.Result {
	res := harness.Result{Code: r.Code, Skipped: r.Skipped, Consumed: r.Consumed}
	if r.Rejected {
		res.Fault = &harness.Fault{Kind: harness.KindRejected, Harness: r.Harness}
	}
	return res
}

// OpenCache creates dir if needed.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

var libraryVersion = sync.OnceValue(func() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, m := range bi.Deps {
		if m.Path == gonumPath {
			if m.Replace != nil {
				return m.Replace.Version
			}
			return m.Version
		}
	}
	return "unknown"
})

// CacheKey identifies an invocation of the named harness on data under the
// given decode limits and the linked gonum version.
func CacheKey(name string, l fuzzinput.Limits, data []byte) string {
	h := sha3.New256()
	var hdr [16]byte
	binary.LittleEndian.PutUint16(hdr[:2], cacheSchemaVersion)
	binary.LittleEndian.PutUint64(hdr[2:10], uint64(l.MaxRank))
	binary.LittleEndian.PutUint32(hdr[10:14], uint32(l.MaxDimSize))
	h.Write(hdr[:])
	h.Write([]byte(libraryVersion()))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, "results", key[:2], key+".mp")
}

// Put writes r under key.
func (c *Cache) Put(key string, r *CachedResult) error {
	if c == nil {
		return nil
	}
	r.Schema = cacheSchemaVersion

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Get reads the result stored under key. Entries written with another
// schema version are misses.
func (c *Cache) Get(key string, out *CachedResult) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == cacheSchemaVersion, nil
}

// DropAll removes every cached result.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "results"))
}
