package elementwise

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/synadia-labs/tensorfuzz/harness"
	"github.com/synadia-labs/tensorfuzz/harness/harnesstest"
)

func TestSeeds(t *testing.T) {
	harnesstest.RunSeeds(t, Harnesses())
}

func TestSeedsAgree(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := harness.NewRunner(harness.WithLogger(zap.New(core)), harness.WithProgressEvery(0))
	for _, h := range Harnesses() {
		for i, s := range h.Seeds {
			if res := r.Execute(h, s); res.Code != harness.Keep {
				t.Fatalf("%s seed %d: code %d fault %v", h.Name, i, res.Code, res.Fault)
			}
		}
	}
	if logs.Len() != 0 {
		t.Fatalf("differential mismatch on seeds: %v", logs.All())
	}
}

func TestLengthMismatchIsNotAFault(t *testing.T) {
	data := seed([]byte{0}, vectorSeed(1, 2), vectorSeed(1, 2, 3))
	res := harness.NewRunner(harness.WithProgressEvery(0)).Execute(binaryHarness, data)
	if res.Code != harness.Keep || res.Fault != nil {
		t.Fatalf("res = %+v", res)
	}
}

func FuzzBinary(f *testing.F)     { harnesstest.Fuzz(f, binaryHarness) }
func FuzzScale(f *testing.F)      { harnesstest.Fuzz(f, scaleHarness) }
func FuzzCumulative(f *testing.F) { harnesstest.Fuzz(f, cumulativeHarness) }
func FuzzDistance(f *testing.F)   { harnesstest.Fuzz(f, distanceHarness) }
func FuzzExtrema(f *testing.F)    { harnesstest.Fuzz(f, extremaHarness) }
func FuzzSpan(f *testing.F)       { harnesstest.Fuzz(f, spanHarness) }
