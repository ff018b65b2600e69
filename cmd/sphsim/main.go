// runs an sph fluid simulation and writes its frames.
package main

import (
	"compress/zlib"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"runtime"
	"time"

	"github.com/quillaja/sph"
	"github.com/quillaja/sph/frames"
	"github.com/quillaja/sph/stream"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sphsim: ")

	configFile := flag.String("config", "", "gcfg configuration file")
	preset := flag.String("preset", "shell", "base configuration: shell or box")
	numParticles := flag.Int("n", 0, "number of particles (0 keeps the configured count)")
	steps := flag.Int("steps", 200, "number of steps to simulate")
	dt := flag.Float64("dt", 0, "time step (0 uses the configured one)")
	workers := flag.Int("workers", 0, "goroutines for the density and force passes (0 keeps the configured count, or uses every cpu)")
	seed := flag.Int64("seed", 0, "random seed (0 seeds from the clock)")
	every := flag.Int("every", 1, "output every n-th step")

	dbFile := flag.String("db", "", "write frames to this database (file name for sqlite3, dsn for postgres)")
	driver := flag.String("driver", "sqlite3", "database driver: sqlite3 or postgres")
	chunkDir := flag.String("chunks", "", "write compressed frame chunks to this directory")
	chunkSize := flag.Int("chunksize", 48, "frames per chunk")
	listen := flag.String("listen", "", "stream frames over websocket at this address, e.g. :8080")

	stateFilename := flag.String("state", "", "simulation state to resume")
	stateSave := flag.Bool("save", false, "set to save the final simulation state")
	exampleConfig := flag.Bool("example-config", false, "print an example configuration file and exit")
	flag.Parse()

	if *exampleConfig {
		fmt.Print(sph.ExampleConfigFile)
		return
	}
	if *every < 1 {
		log.Fatalf("-every must be at least 1, got %d", *every)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	sim, err := setup(*stateFilename, *configFile, *preset, *numParticles, *workers, rng)
	if err != nil {
		log.Fatal(err)
	}
	cfg := sim.Config()

	// setup frame output workers
	var sinks []frames.Sink
	var db *frames.SQLSink
	if *dbFile != "" {
		db, err = frames.OpenSQL(*driver, *dbFile)
		if err != nil {
			log.Fatal(err)
		}
		sinks = append(sinks, db)
	}
	if *chunkDir != "" {
		cs, err := frames.NewChunkStore(*chunkDir, *chunkSize, zlib.DefaultCompression)
		if err != nil {
			log.Fatal(err)
		}
		sinks = append(sinks, cs)
	}
	send, wait := frames.Fanout(32, sinks...)

	var ws *stream.Server
	if *listen != "" {
		ws = stream.NewServer(log.Default())
		mux := http.NewServeMux()
		mux.Handle("/ws", ws)
		go func() {
			log.Printf("streaming frames on ws://%s/ws", *listen)
			if err := http.ListenAndServe(*listen, mux); err != nil {
				log.Println("stream server:", err)
			}
		}()
	}

	output := func(f *sph.Frame) {
		if len(sinks) > 0 {
			send(frames.NewJob(f))
		}
		if ws != nil {
			if err := ws.Publish(f); err != nil {
				log.Println("stream publish:", err)
			}
		}
	}

	// print parameters
	fmt.Printf("particles: %d\nboundary: %s\nsmoothing radius: %g\nstep: %g\nsteps: %d\nworkers: %d\nseed: %d\n",
		sim.Len(),
		cfg.Boundary,
		cfg.SmoothingRadius,
		stepSize(*dt, cfg),
		*steps,
		cfg.Workers,
		*seed)

	start := time.Now()
	startStep := sim.Steps()
	output(sim.Snapshot())
	for i := 1; i <= *steps; i++ {
		sim.Step(*dt)
		if i%*every == 0 || i == *steps {
			output(sim.Snapshot())
		}

		// progress
		avgTimePerStep := time.Since(start) / time.Duration(i)
		estTimeLeft := avgTimePerStep * time.Duration(*steps-i)
		fmt.Printf("%.1f%%, step %d, %s/step, %s remaining, %s elapsed                    \r",
			100*float64(i)/float64(*steps),
			startStep+i,
			avgTimePerStep.Truncate(time.Microsecond),
			estTimeLeft.Truncate(time.Second),
			time.Since(start).Truncate(time.Second),
		)

		if sim.Diverged() {
			break
		}
	}

	for _, err := range wait() {
		log.Println("frame output:", err)
	}
	if db != nil {
		if err := db.CreateIndices(); err != nil {
			log.Println("creating indices:", err)
		}
	}
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			log.Println("closing frame output:", err)
		}
	}

	st := sph.Summarize(sim.Snapshot(), cfg.ParticleMass)
	fmt.Printf("\nDone. Took %s\n", time.Since(start).Truncate(time.Millisecond))
	fmt.Printf("density: mean %.4f, std %.4f, min %.4f, max %.4f\nmax speed: %.4f\nkinetic energy: %.4f\nextent: %.3v\n",
		st.DensityMean, st.DensityStd, st.DensityMin, st.DensityMax,
		st.MaxSpeed, st.KineticEnergy, st.Bounds.Width)

	// export final state of simulation
	if *stateSave {
		fname := fmt.Sprintf("%010d.data", sim.Steps())
		if err := sim.SaveFile(fname); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("state saved to %s\n", fname)
	}

	if err := sim.Health(); err != nil {
		log.Fatal(err)
	}
}

// setup resumes a saved state, or builds a fresh simulation from a preset
// and an optional configuration file.
func setup(stateFilename, configFile, preset string, n, workers int, rng *rand.Rand) (*sph.Simulation, error) {
	if stateFilename != "" {
		if configFile != "" || n != 0 {
			log.Println("resuming state; -config and -n are ignored")
		}
		return sph.LoadFile(stateFilename, rng)
	}

	cfg, err := sph.Preset(preset)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		cfg, err = sph.LoadConfig(configFile, cfg)
		if err != nil {
			return nil, err
		}
	}
	if n != 0 {
		cfg.ParticleCount = n
	}
	switch {
	case workers != 0:
		cfg.Workers = workers
	case cfg.Workers == 0:
		cfg.Workers = runtime.NumCPU()
	}
	return sph.New(cfg, rng)
}

func stepSize(dt float64, cfg sph.Config) float64 {
	if dt > 0 {
		return dt
	}
	return cfg.TimeStep
}
