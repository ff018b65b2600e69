package frames

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillaja/sph"
)

type memorySink struct {
	m      sync.Mutex
	frames []int
	fail   int
	closed bool
}

func (s *memorySink) Write(job *Job) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.fail > 0 && job.Frame == s.fail {
		return errors.New("disk full")
	}
	s.frames = append(s.frames, job.Frame)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func testJob(frame, n int) *Job {
	job := &Job{Frame: frame, Time: float64(frame) * 0.1}
	for i := 0; i < n; i++ {
		job.Particles = append(job.Particles, sph.Particle{
			Position: mgl64.Vec3{float64(i), float64(frame), 0.5},
			Velocity: mgl64.Vec3{0, 0, float64(i)},
			Density:  1 + float64(i),
			Pressure: float64(i) - 1,
		})
	}
	return job
}

func TestNewJob(t *testing.T) {
	f := &sph.Frame{Step: 7, Time: 1.4, Particles: make([]sph.Particle, 3)}
	job := NewJob(f)
	assert.Equal(t, 7, job.Frame)
	assert.Equal(t, 1.4, job.Time)
	assert.Len(t, job.Particles, 3)
}

func TestConsumeDrainsAfterError(t *testing.T) {
	sink := &memorySink{fail: 2}
	ch := make(chan *Job, 5)
	for i := 0; i < 5; i++ {
		ch <- testJob(i, 1)
	}
	close(ch)

	err := Consume(sink, ch)
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, []int{0, 1}, sink.frames)
	assert.Empty(t, ch)
}

func TestFanout(t *testing.T) {
	a, b := &memorySink{}, &memorySink{fail: 1}
	send, wait := Fanout(2, a, b)
	for i := 0; i < 4; i++ {
		send(testJob(i, 2))
	}
	errs := wait()

	assert.Equal(t, []int{0, 1, 2, 3}, a.frames)
	assert.Equal(t, []int{0}, b.frames)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "disk full")
}
