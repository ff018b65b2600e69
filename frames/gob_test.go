package frames

import (
	"compress/zlib"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chunks")
	cs, err := NewChunkStore(dir, 2, zlib.BestSpeed)
	require.NoError(t, err)

	for frame := 0; frame < 5; frame++ {
		require.NoError(t, cs.Write(testJob(frame, 3)))
	}
	require.NoError(t, cs.Close())

	files, err := ChunkFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "0000000001.chunk", filepath.Base(files[0]))
	assert.Equal(t, "0000000003.chunk", filepath.Base(files[1]))
	assert.Equal(t, "0000000004.chunk", filepath.Base(files[2]))

	chunk, err := ReadChunk(files[1])
	require.NoError(t, err)
	require.Len(t, chunk, 2)
	frame3 := chunk[3]
	require.Len(t, frame3, 3)
	assert.Equal(t, RenderParticle{X: 2, Y: 3, Z: 0.5, Density: 3}, frame3[2])

	last, err := ReadChunk(files[2])
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestChunkStoreRejects(t *testing.T) {
	_, err := NewChunkStore(t.TempDir(), 0, zlib.DefaultCompression)
	assert.Error(t, err)
	_, err = NewChunkStore(t.TempDir(), 4, 42)
	assert.Error(t, err)

	cs, err := NewChunkStore(t.TempDir(), 4, zlib.DefaultCompression)
	require.NoError(t, err)
	assert.Error(t, cs.Write(&Job{Frame: -1}))
	assert.NoError(t, cs.Close())

	_, err = ReadChunk(filepath.Join(t.TempDir(), "missing.chunk"))
	assert.Error(t, err)
}

func TestChunkStoreSparseFrames(t *testing.T) {
	dir := t.TempDir()
	cs, err := NewChunkStore(dir, 4, zlib.BestSpeed)
	require.NoError(t, err)

	// every other frame, as written with -every 2
	for frame := 0; frame <= 20; frame += 2 {
		require.NoError(t, cs.Write(testJob(frame, 2)))
	}
	cs.dumperWG.Wait()

	assert.Len(t, cs.buckets, 1, "only the bucket of frame 20 stays in memory")
	files, err := ChunkFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 5)
	assert.Equal(t, "0000000003.chunk", filepath.Base(files[0]))
	assert.Equal(t, "0000000019.chunk", filepath.Base(files[4]))

	first, err := ReadChunk(files[0])
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Contains(t, first, uint32(0))
	assert.Contains(t, first, uint32(2))

	assert.Error(t, cs.Write(testJob(6, 2)), "chunk of frame 6 is already written")

	require.NoError(t, cs.Close())
	files, err = ChunkFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 6)
	assert.Equal(t, "0000000020.chunk", filepath.Base(files[5]))
}
