package frames

import (
	"compress/zlib"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

/*
chunked frame store. frames are grouped into buckets of a fixed number of
frame numbers; once a bucket is complete, or a frame of a later bucket
arrives, it is written as one zlib compressed gob file named after its last
frame number, and dropped from memory.

render particles keep float32 positions and density only, which is all a
renderer needs and keeps chunks small.
*/

// RenderParticle is the compact per-particle record kept in chunks.
type RenderParticle struct {
	X, Y, Z float32
	Density float32
}

// Chunk maps frame number to the particles of that frame, in index order.
type Chunk map[uint32][]RenderParticle

// ChunkStore is a Sink writing compressed chunks to a directory.
type ChunkStore struct {
	dir        string
	bucketSize int
	level      int

	m       sync.Mutex
	buckets map[int]Chunk
	flushed int // buckets below this have been dumped

	dumperWG sync.WaitGroup
	sem      chan struct{}
	errs     []error
}

// NewChunkStore writes chunks of framesPerChunk frames into dir, creating
// it if needed. level is a zlib compression level.
func NewChunkStore(dir string, framesPerChunk, level int) (*ChunkStore, error) {
	if framesPerChunk <= 0 {
		return nil, fmt.Errorf("frames per chunk must be positive, got %d", framesPerChunk)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if _, err := zlib.NewWriterLevel(nil, level); err != nil {
		return nil, err
	}
	return &ChunkStore{
		dir:        dir,
		bucketSize: framesPerChunk,
		level:      level,
		buckets:    make(map[int]Chunk),
		sem:        make(chan struct{}, 4),
	}, nil
}

func bucketToFrames(bucketNumber, bucketSize int) (lowIndex, highIndex int) {
	// inclusive indices
	return bucketNumber * bucketSize, (bucketNumber+1)*bucketSize - 1
}

// Write adds a frame to its bucket. A full bucket, and every bucket before
// the one job belongs to, is dumped in the background. Frames must arrive in
// increasing order, as Consume delivers them; sparse frame numbers are fine.
func (cs *ChunkStore) Write(job *Job) error {
	if job.Frame < 0 {
		return fmt.Errorf("negative frame %d", job.Frame)
	}
	frameData := make([]RenderParticle, len(job.Particles))
	for i, p := range job.Particles {
		frameData[i] = RenderParticle{
			X:       float32(p.Position[0]),
			Y:       float32(p.Position[1]),
			Z:       float32(p.Position[2]),
			Density: float32(p.Density),
		}
	}

	cs.m.Lock()
	bnum := job.Frame / cs.bucketSize
	if bnum < cs.flushed {
		cs.m.Unlock()
		return fmt.Errorf("frame %d arrived after its chunk was written", job.Frame)
	}
	ready := make(map[int]Chunk)
	for b, chunk := range cs.buckets {
		if b < bnum {
			ready[b] = chunk
			delete(cs.buckets, b)
		}
	}
	bucket, ok := cs.buckets[bnum]
	if !ok {
		bucket = make(Chunk, cs.bucketSize)
		cs.buckets[bnum] = bucket
	}
	bucket[uint32(job.Frame)] = frameData
	if len(bucket) == cs.bucketSize {
		ready[bnum] = bucket
		delete(cs.buckets, bnum)
		cs.flushed = bnum + 1
	} else {
		cs.flushed = bnum
	}
	cs.m.Unlock()

	for b, chunk := range ready {
		_, h := bucketToFrames(b, cs.bucketSize)
		cs.dump(chunk, h)
	}
	return cs.firstErr()
}

// dump writes a chunk on its own goroutine, at most 4 at a time.
func (cs *ChunkStore) dump(chunk Chunk, lastFrame int) {
	cs.dumperWG.Add(1)
	go func() {
		defer cs.dumperWG.Done()
		cs.sem <- struct{}{}
		defer func() { <-cs.sem }()

		if err := cs.writeChunk(chunk, lastFrame); err != nil {
			cs.m.Lock()
			cs.errs = append(cs.errs, err)
			cs.m.Unlock()
		}
	}()
}

func (cs *ChunkStore) writeChunk(chunk Chunk, lastFrame int) error {
	fname := filepath.Join(cs.dir, fmt.Sprintf("%010d.chunk", lastFrame))
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	zw, err := zlib.NewWriterLevel(file, cs.level)
	if err != nil {
		file.Close()
		return err
	}
	if err := gob.NewEncoder(zw).Encode(chunk); err != nil {
		zw.Close()
		file.Close()
		os.Remove(fname)
		return fmt.Errorf("encoding %s: %w", fname, err)
	}
	if err := zw.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (cs *ChunkStore) firstErr() error {
	cs.m.Lock()
	defer cs.m.Unlock()
	if len(cs.errs) > 0 {
		return cs.errs[0]
	}
	return nil
}

// Close dumps the incomplete buckets, waits for every dump, and returns the
// dump errors.
func (cs *ChunkStore) Close() error {
	cs.m.Lock()
	rest := cs.buckets
	cs.buckets = make(map[int]Chunk)
	cs.m.Unlock()

	for _, chunk := range rest {
		last := -1
		for frame := range chunk {
			if int(frame) > last {
				last = int(frame)
			}
		}
		cs.dump(chunk, last)
	}
	cs.dumperWG.Wait()

	cs.m.Lock()
	defer cs.m.Unlock()
	return errors.Join(cs.errs...)
}

// ReadChunk decodes one chunk file.
func ReadChunk(fname string) (Chunk, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	zr, err := zlib.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var chunk Chunk
	if err := gob.NewDecoder(zr).Decode(&chunk); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fname, err)
	}
	return chunk, nil
}

// ChunkFiles lists the chunk files in dir in frame order.
func ChunkFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.chunk"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
