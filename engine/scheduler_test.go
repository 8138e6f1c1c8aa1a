package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerSerializesJobs(t *testing.T) {
	s := NewScheduler(nil, nil)
	defer s.Close()

	release := make(chan struct{})
	var running, peak atomic.Int32
	job := func() {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
	}

	s.Submit(job)
	submitted := make(chan struct{})
	go func() {
		s.Submit(job)
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("second Submit returned while the first job was running")
	case <-time.After(50 * time.Millisecond):
	}

	release <- struct{}{}
	<-submitted
	release <- struct{}{}
	s.Wait()

	if peak.Load() != 1 {
		t.Errorf("%d jobs ran at once", peak.Load())
	}
	if s.Pending() {
		t.Error("Pending after Wait")
	}
}

func TestSchedulerHooks(t *testing.T) {
	var mu sync.Mutex
	var order []string
	note := func(s string) func() {
		return func() {
			mu.Lock()
			order = append(order, s)
			mu.Unlock()
		}
	}

	s := NewScheduler(note("activate"), note("deactivate"))
	s.Submit(note("job"))
	s.Submit(note("job"))
	s.Close()

	want := []string{"activate", "job", "deactivate", "activate", "job", "deactivate"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSchedulerCloseIdempotent(t *testing.T) {
	s := NewScheduler(nil, nil)
	s.Close()
	s.Close()
	if s.Pending() {
		t.Error("idle scheduler reports pending work")
	}
}

func TestSchedulerSubmitAfterClose(t *testing.T) {
	s := NewScheduler(nil, nil)
	s.Close()

	ran := false
	if s.Submit(func() { ran = true }) {
		t.Error("Submit accepted a job after Close")
	}
	s.Wait()
	if ran || s.Pending() {
		t.Error("job ran after Close")
	}
}
