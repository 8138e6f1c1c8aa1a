package engine

import (
	"runtime"
	"sync"

	"github.com/richinsley/gomilkdrop/logging"
)

// Scheduler runs compile jobs one at a time on a single worker goroutine.
// The worker's OS thread is locked so a GL context made current by the
// activate hook stays current for the job.
type Scheduler struct {
	jobs chan func()
	done chan struct{}

	mu      sync.Mutex
	pending bool
	closed  bool

	activate   func()
	deactivate func()

	closeOnce sync.Once
	exited    chan struct{}
}

// NewScheduler starts the worker. activate and deactivate run around every
// job on the worker thread and may be nil.
func NewScheduler(activate, deactivate func()) *Scheduler {
	s := &Scheduler{
		jobs:       make(chan func()),
		done:       make(chan struct{}, 1),
		activate:   activate,
		deactivate: deactivate,
		exited:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.exited)

	for job := range s.jobs {
		if s.activate != nil {
			s.activate()
		}
		job()
		if s.deactivate != nil {
			s.deactivate()
		}
		s.done <- struct{}{}
	}
}

// Submit hands job to the worker. If the previous job has not signalled
// completion yet, Submit blocks until it does. Jobs never overlap and are
// never cancelled. Jobs submitted after Close are dropped and Submit
// returns false.
func (s *Scheduler) Submit(job func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		logging.Logger().Warn("compile worker is closed, dropping job")
		return false
	}
	if s.pending {
		select {
		case <-s.done:
		default:
			logging.Logger().Warn("compile from previous preset has not completed, waiting")
			<-s.done
		}
	}
	s.pending = true
	s.jobs <- job
	return true
}

// Wait blocks until the outstanding job, if any, has completed.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wait()
}

func (s *Scheduler) wait() {
	if s.pending {
		<-s.done
		s.pending = false
	}
}

// Pending reports whether a submitted job has not been waited for. A job
// that already finished still counts until Submit or Wait consumes its
// completion.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Close waits for the outstanding job and stops the worker.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.wait()
		s.closed = true
		close(s.jobs)
		s.mu.Unlock()
		<-s.exited
	})
}
