// Package frames persists simulation frames. Sinks consume frame jobs from a
// channel so that writing never blocks the solver.
package frames

import (
	"sync"

	"github.com/quillaja/sph"
)

// Job is one frame queued for output.
type Job struct {
	Frame     int
	Time      float64
	Particles []sph.Particle
}

// NewJob wraps a published frame. The particle slice is shared, which is
// safe because published frames are never modified.
func NewJob(f *sph.Frame) *Job {
	return &Job{Frame: f.Step, Time: f.Time, Particles: f.Particles}
}

// Sink stores frames.
type Sink interface {
	Write(job *Job) error
	Close() error
}

// Consume writes every job received on ch to sink until ch is closed. The
// first write error is returned after ch is drained, so producers never
// block on a failed sink.
func Consume(sink Sink, ch <-chan *Job) error {
	var first error
	for job := range ch {
		if first != nil {
			continue
		}
		first = sink.Write(job)
	}
	return first
}

// Fanout starts one consumer goroutine per sink, each fed by its own
// buffered channel. send queues a job for every sink; wait closes the
// channels, waits for the consumers and returns their errors.
func Fanout(buffer int, sinks ...Sink) (send func(*Job), wait func() []error) {
	chans := make([]chan *Job, len(sinks))
	errs := make([]error, len(sinks))
	wg := sync.WaitGroup{}
	wg.Add(len(sinks))
	for i := range sinks {
		chans[i] = make(chan *Job, buffer)
		go func(i int) {
			errs[i] = Consume(sinks[i], chans[i])
			wg.Done()
		}(i)
	}

	send = func(job *Job) {
		for _, ch := range chans {
			ch <- job
		}
	}
	wait = func() []error {
		for _, ch := range chans {
			close(ch)
		}
		wg.Wait()
		var out []error
		for _, err := range errs {
			if err != nil {
				out = append(out, err)
			}
		}
		return out
	}
	return send, wait
}
