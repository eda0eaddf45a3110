package benchmarks

import (
	"fmt"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/synadia-labs/tensorfuzz/corpus"
)

// The stats file is written after every replay. These compare the
// hand-written msgp codec against the reflection based encoders.

func sampleStats() *corpus.Stats {
	s := &corpus.Stats{
		Started: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed: 1500 * time.Millisecond,
		Inputs:  4096,
	}
	for i := range 24 {
		s.Harnesses = append(s.Harnesses, corpus.HarnessStats{
			Name:      fmt.Sprintf("harness_%02d", i),
			Runs:      4096,
			Kept:      4000,
			Discarded: 96,
			Skipped:   12,
			Cached:    2048,
			Rejected:  uint64(i),
		})
	}
	return s
}

func BenchmarkStats_Msgp_Marshal(b *testing.B) {
	s := sampleStats()
	buf := make([]byte, 0, s.Msgsize())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var err error
		buf, err = s.MarshalMsg(buf[:0])
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStats_Msgp_Unmarshal(b *testing.B) {
	data, err := sampleStats().MarshalMsg(nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var s corpus.Stats
		if _, err := s.UnmarshalMsg(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStats_CBOR_Marshal(b *testing.B) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		b.Fatal(err)
	}
	s := sampleStats()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := em.Marshal(s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStats_CBOR_Unmarshal(b *testing.B) {
	data, err := cbor.Marshal(sampleStats())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var s corpus.Stats
		if err := cbor.Unmarshal(data, &s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStats_Msgpack_Marshal(b *testing.B) {
	s := sampleStats()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := msgpack.Marshal(s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStats_Msgpack_Unmarshal(b *testing.B) {
	data, err := msgpack.Marshal(sampleStats())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var s corpus.Stats
		if err := msgpack.Unmarshal(data, &s); err != nil {
			b.Fatal(err)
		}
	}
}
