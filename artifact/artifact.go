// Package artifact persists inputs that crashed a harness or made two
// computations disagree, together with a CBOR record of what happened.
//
// Layout under the store root:
//
//	<root>/<harness>/<kind>-<sha3-256 hex>   raw input bytes
//	<root>/records.cbor                      CBOR sequence of Record
package artifact

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"

	"github.com/synadia-labs/tensorfuzz/harness"
)

// RecordsFile is the name of the record log under the store root.
const RecordsFile = "records.cbor"

// KindDiff marks records written by SaveDiff.
const KindDiff = "diff"

// Record describes one saved input.
type Record struct {
	Harness string    `cbor:"1,keyasint"`
	Op      string    `cbor:"2,keyasint,omitempty"`
	Kind    string    `cbor:"3,keyasint"`
	Value   string    `cbor:"4,keyasint,omitempty"`
	Stack   string    `cbor:"5,keyasint,omitempty"`
	MaxDiff float64   `cbor:"6,keyasint,omitempty"`
	Time    time.Time `cbor:"7,keyasint"`
	Digest  string    `cbor:"8,keyasint"`
	Size    int       `cbor:"9,keyasint"`
}

// Path returns the input file of r relative to the store root.
func (r *Record) Path() string {
	return filepath.Join(r.Harness, r.Kind+"-"+r.Digest)
}

// Digest returns the hex SHA3-256 of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// Store is a directory of saved inputs. It implements harness.Sink and is
// safe for concurrent use.
type Store struct {
	root string
	now  func() time.Time

	mu sync.Mutex
}

var _ harness.Sink = (*Store)(nil)

// Open creates root if needed and returns a Store writing under it.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("artifact: empty directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return &Store{root: root, now: time.Now}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// SaveFault stores the input of a failed invocation.
func (s *Store) SaveFault(data []byte, f *harness.Fault) error {
	rec := Record{
		Harness: f.Harness,
		Op:      f.Op,
		Kind:    string(f.Kind),
		Stack:   f.Stack,
	}
	switch {
	case f.Cause != nil:
		rec.Value = f.Cause.Error()
	case f.Value != nil:
		rec.Value = fmt.Sprint(f.Value)
	}
	return s.save(data, rec)
}

// SaveDiff stores an input whose results disagreed by maxDiff.
func (s *Store) SaveDiff(data []byte, name, op string, maxDiff float64) error {
	return s.save(data, Record{Harness: name, Op: op, Kind: KindDiff, MaxDiff: maxDiff})
}

func (s *Store) save(data []byte, rec Record) error {
	if !harness.ValidName(rec.Harness) {
		// Never let a name escape the store root.
		rec.Harness = "unknown"
	}
	rec.Digest = Digest(data)
	rec.Size = len(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Time = s.now().UTC()
	b, err := encMode.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("artifact: encode record: %w", err)
	}
	if err := s.writeInput(rec.Path(), data); err != nil {
		return err
	}
	fh, err := os.OpenFile(filepath.Join(s.root, RecordsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if _, err := fh.Write(b); err != nil {
		fh.Close()
		return fmt.Errorf("artifact: append record: %w", err)
	}
	return fh.Close()
}

// writeInput writes data to rel unless it already exists.
func (s *Store) writeInput(rel string, data []byte) error {
	path := filepath.Join(s.root, rel)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact: write input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: %w", err)
	}
	return nil
}

// Records reads every record in the store, oldest first. A missing log
// yields no records.
func (s *Store) Records() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadRecords(filepath.Join(s.root, RecordsFile))
}

// ReadRecords decodes a record log.
func ReadRecords(path string) ([]Record, error) {
	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	defer fh.Close()

	var out []Record
	dec := decMode.NewDecoder(fh)
	for {
		var rec Record
		err := dec.Decode(&rec)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("artifact: record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}

// Input returns the saved bytes for rec.
func (s *Store) Input(rec *Record) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, rec.Path()))
}

// Summary counts records of one harness and kind.
type Summary struct {
	Harness string
	Kind    string
	Count   int
	Unique  int
	Ops     []string
	Last    time.Time
	MaxDiff float64
}

// Summarize groups records by harness and kind, sorted by harness then kind.
func Summarize(recs []Record) []Summary {
	type key struct{ harness, kind string }
	idx := map[key]int{}
	seen := map[key]map[string]bool{}
	ops := map[key]map[string]bool{}
	var out []Summary
	for _, r := range recs {
		k := key{r.Harness, r.Kind}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Summary{Harness: r.Harness, Kind: r.Kind})
			seen[k] = map[string]bool{}
			ops[k] = map[string]bool{}
		}
		sm := &out[i]
		sm.Count++
		if !seen[k][r.Digest] {
			seen[k][r.Digest] = true
			sm.Unique++
		}
		if r.Op != "" && !ops[k][r.Op] {
			ops[k][r.Op] = true
			sm.Ops = append(sm.Ops, r.Op)
		}
		if r.Time.After(sm.Last) {
			sm.Last = r.Time
		}
		if r.MaxDiff > sm.MaxDiff {
			sm.MaxDiff = r.MaxDiff
		}
	}
	for i := range out {
		sort.Strings(out[i].Ops)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Harness != out[j].Harness {
			return out[i].Harness < out[j].Harness
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
