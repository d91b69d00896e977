package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func withFake(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := withFake(t)

	RecordStep("sales", "apps", nil, 2*time.Second)
	RecordStep("sales", "orders", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("calls: counters=%d histograms=%d, want 2/2", len(fb.counters), len(fb.histograms))
	}
	if c := fb.counters[0]; c.name != StepTotal || c.labels["status"] != "success" || c.labels["step"] != "apps" {
		t.Fatalf("counter[0] = %#v", c)
	}
	if c := fb.counters[1]; c.labels["status"] != "failure" {
		t.Fatalf("counter[1] status = %q, want failure", c.labels["status"])
	}
	if h := fb.histograms[1]; h.name != StepDurationSeconds || h.value != 1.5 {
		t.Fatalf("histogram[1] = %#v", h)
	}
}

func TestRecordRows_SkipsNonPositive(t *testing.T) {
	fb := withFake(t)

	RecordRows("sales", "orders", "written", 0)
	RecordRows("sales", "orders", "written", -3)
	RecordRows("sales", "orders", "written", 4)

	if len(fb.counters) != 1 {
		t.Fatalf("counter calls = %d, want 1", len(fb.counters))
	}
	c := fb.counters[0]
	if c.name != RowsTotal || c.delta != 4 || c.labels["entity"] != "orders" || c.labels["kind"] != "written" {
		t.Fatalf("counter = %#v", c)
	}
}

func TestRecordFile(t *testing.T) {
	fb := withFake(t)

	RecordFile("sales", nil)
	RecordFile("sales", errors.New("x"))

	if fb.counters[0].labels["status"] != "success" || fb.counters[1].labels["status"] != "failure" {
		t.Fatalf("counters = %#v", fb.counters)
	}
}

func TestSetBackend_NilKeepsCurrent(t *testing.T) {
	fb := withFake(t)

	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatal(err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1", fb.flushCount)
	}
}
