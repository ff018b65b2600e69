package sph

import (
	"encoding/gob"
	"fmt"
	"io"
	"math/rand"
	"os"
)

/*

helpers to save and restore simulation state

*/

type savedState struct {
	Config    Config
	Step      int
	Time      float64
	Particles []Particle
}

// Save writes the configuration and the current particle state to w.
func (s *Simulation) Save(w io.Writer) error {
	state := savedState{
		Config:    s.cfg,
		Step:      s.step,
		Time:      s.time,
		Particles: s.store.particles,
	}
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return nil
}

// SaveFile writes the state to fname, removing the file if encoding fails.
func (s *Simulation) SaveFile(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := s.Save(file); err != nil {
		file.Close()
		os.Remove(fname)
		return err
	}
	return file.Close()
}

// Load resumes a simulation written by Save.
func Load(r io.Reader, rng *rand.Rand) (*Simulation, error) {
	var state savedState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	s, err := NewFromParticles(state.Config, state.Particles, rng)
	if err != nil {
		return nil, err
	}
	s.step = state.Step
	s.time = state.Time
	s.unstable = s.checkFinite()
	s.publish()
	return s, nil
}

// LoadFile is Load on the named file.
func LoadFile(fname string, rng *rand.Rand) (*Simulation, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Load(file, rng)
}
