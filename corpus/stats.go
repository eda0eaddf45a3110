package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"fortio.org/safecast"
	"github.com/tinylib/msgp/msgp"

	"github.com/synadia-labs/tensorfuzz/harness"
)

// HarnessStats counts the outcomes of one harness during a replay.
type HarnessStats struct {
	Name      string
	Runs      uint64
	Kept      uint64
	Discarded uint64
	Skipped   uint64
	Cached    uint64
	Errors    uint64
	Panics    uint64
	Rejected  uint64
	Diffs     uint64
}

func (h *HarnessStats) add(res harness.Result, cached bool) {
	h.Runs++
	if res.Code == harness.Keep {
		h.Kept++
	} else {
		h.Discarded++
	}
	if res.Skipped {
		h.Skipped++
	}
	if cached {
		h.Cached++
	}
	if res.Diffs > 0 {
		h.Diffs += uint64(res.Diffs)
	}
	if res.Fault != nil {
		switch res.Fault.Kind {
		case harness.KindError:
			h.Errors++
		case harness.KindPanic:
			h.Panics++
		case harness.KindRejected:
			h.Rejected++
		}
	}
}

// Stats summarizes a replay.
type Stats struct {
	Started   time.Time
	Elapsed   time.Duration
	Inputs    uint64
	Harnesses []HarnessStats
}

// Panics returns the total panic count.
func (s *Stats) Panics() uint64 {
	var n uint64
	for i := range s.Harnesses {
		n += s.Harnesses[i].Panics
	}
	return n
}

func (s *Stats) sortHarnesses() {
	sort.Slice(s.Harnesses, func(i, j int) bool { return s.Harnesses[i].Name < s.Harnesses[j].Name })
}

// Field names on the wire.
const (
	fieldStarted   = "started"
	fieldElapsed   = "elapsed"
	fieldInputs    = "inputs"
	fieldHarnesses = "harnesses"
)

var harnessFields = [...]string{"name", "runs", "kept", "discarded", "skipped", "cached", "errors", "panics", "rejected", "diffs"}

func (h *HarnessStats) counters() [9]*uint64 {
	return [9]*uint64{&h.Runs, &h.Kept, &h.Discarded, &h.Skipped, &h.Cached, &h.Errors, &h.Panics, &h.Rejected, &h.Diffs}
}

// MarshalMsg implements msgp.Marshaler
func (h *HarnessStats) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, uint32(len(harnessFields)))
	b = msgp.AppendString(b, harnessFields[0])
	b = msgp.AppendString(b, h.Name)
	for i, c := range h.counters() {
		b = msgp.AppendString(b, harnessFields[i+1])
		b = msgp.AppendUint64(b, *c)
	}
	return b, nil
}

// UnmarshalMsg implements msgp.Unmarshaler. Unknown fields are skipped.
func (h *HarnessStats) UnmarshalMsg(b []byte) ([]byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return b, msgp.WrapError(err, "HarnessStats")
	}
	counters := h.counters()
	for ; n > 0; n-- {
		var key []byte
		key, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return b, msgp.WrapError(err, "HarnessStats")
		}
		field := string(key)
		if field == harnessFields[0] {
			h.Name, b, err = msgp.ReadStringBytes(b)
			if err != nil {
				return b, msgp.WrapError(err, "Name")
			}
			continue
		}
		idx := -1
		for i, f := range harnessFields[1:] {
			if f == field {
				idx = i
				break
			}
		}
		if idx < 0 {
			if b, err = msgp.Skip(b); err != nil {
				return b, msgp.WrapError(err, field)
			}
			continue
		}
		*counters[idx], b, err = msgp.ReadUint64Bytes(b)
		if err != nil {
			return b, msgp.WrapError(err, field)
		}
	}
	return b, nil
}

// Msgsize returns an upper bound of the encoded size.
func (h *HarnessStats) Msgsize() int {
	s := msgp.MapHeaderSize + msgp.StringPrefixSize + len(h.Name)
	for _, f := range harnessFields {
		s += msgp.StringPrefixSize + len(f)
	}
	return s + 9*msgp.Uint64Size
}

// MarshalMsg implements msgp.Marshaler
func (s *Stats) MarshalMsg(b []byte) ([]byte, error) {
	n, err := safecast.Conv[uint32](len(s.Harnesses))
	if err != nil {
		return b, fmt.Errorf("corpus: too many harnesses: %w", err)
	}
	b = msgp.AppendMapHeader(b, 4)
	b = msgp.AppendString(b, fieldStarted)
	b = msgp.AppendTime(b, s.Started)
	b = msgp.AppendString(b, fieldElapsed)
	b = msgp.AppendInt64(b, int64(s.Elapsed))
	b = msgp.AppendString(b, fieldInputs)
	b = msgp.AppendUint64(b, s.Inputs)
	b = msgp.AppendString(b, fieldHarnesses)
	b = msgp.AppendArrayHeader(b, n)
	for i := range s.Harnesses {
		if b, err = s.Harnesses[i].MarshalMsg(b); err != nil {
			return b, err
		}
	}
	return b, nil
}

// UnmarshalMsg implements msgp.Unmarshaler. Unknown fields are skipped.
func (s *Stats) UnmarshalMsg(b []byte) ([]byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return b, msgp.WrapError(err, "Stats")
	}
	for ; n > 0; n-- {
		var key []byte
		key, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return b, msgp.WrapError(err, "Stats")
		}
		switch string(key) {
		case fieldStarted:
			s.Started, b, err = msgp.ReadTimeBytes(b)
		case fieldElapsed:
			var d int64
			d, b, err = msgp.ReadInt64Bytes(b)
			s.Elapsed = time.Duration(d)
		case fieldInputs:
			s.Inputs, b, err = msgp.ReadUint64Bytes(b)
		case fieldHarnesses:
			var sz uint32
			sz, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return b, msgp.WrapError(err, "Harnesses")
			}
			// Each entry takes at least a map header byte.
			if uint64(sz) > uint64(len(b)) {
				return b, msgp.WrapError(msgp.ErrShortBytes, "Harnesses")
			}
			s.Harnesses = make([]HarnessStats, sz)
			for i := range s.Harnesses {
				if b, err = s.Harnesses[i].UnmarshalMsg(b); err != nil {
					return b, msgp.WrapError(err, "Harnesses", i)
				}
			}
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return b, msgp.WrapError(err, string(key))
		}
	}
	return b, nil
}

// Msgsize returns an upper bound of the encoded size.
func (s *Stats) Msgsize() int {
	n := msgp.MapHeaderSize + 4*msgp.StringPrefixSize +
		len(fieldStarted) + len(fieldElapsed) + len(fieldInputs) + len(fieldHarnesses) +
		msgp.TimeSize + msgp.Int64Size + msgp.Uint64Size + msgp.ArrayHeaderSize
	for i := range s.Harnesses {
		n += s.Harnesses[i].Msgsize()
	}
	return n
}

// WriteStats writes s to path, replacing any previous file.
func WriteStats(path string, s *Stats) error {
	b, err := s.MarshalMsg(make([]byte, 0, s.Msgsize()))
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	f, err := os.CreateTemp(dir, ".stats-*")
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("corpus: write stats: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("corpus: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("corpus: %w", err)
	}
	return nil
}

// ErrNoStats is returned by ReadStats when no replay has been recorded.
var ErrNoStats = errors.New("corpus: no replay statistics")

// ReadStats reads a file written by WriteStats.
func ReadStats(path string) (*Stats, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoStats
	}
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	s := new(Stats)
	if _, err := s.UnmarshalMsg(b); err != nil {
		return nil, fmt.Errorf("corpus: %s: %w", path, err)
	}
	return s, nil
}
