package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillaja/sph"
)

func testFrame(step int) *sph.Frame {
	return &sph.Frame{
		Step: step,
		Time: float64(step) * 0.5,
		Particles: []sph.Particle{
			{Position: mgl64.Vec3{1, 2, 3}, Density: 1.5},
			{Position: mgl64.Vec3{-1, 0, float64(step)}, Density: 2},
		},
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(testFrame(4))
	assert.Equal(t, "frame", msg.Type)
	assert.Equal(t, 4, msg.Frame)
	assert.Equal(t, 2.0, msg.Time)
	assert.Equal(t, [][3]float64{{1, 2, 3}, {-1, 0, 4}}, msg.Positions)
	assert.Equal(t, []float64{1.5, 2}, msg.Densities)
}

func TestServerBroadcast(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	require.NoError(t, s.Publish(testFrame(1)))
	conn := dial(t, srv)

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 1, msg.Frame, "latest frame is sent on connect")

	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	bad := testFrame(2)
	bad.NonFinite = true
	require.NoError(t, s.Publish(bad))
	require.NoError(t, s.Publish(testFrame(3)))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 3, msg.Frame, "non-finite frames are skipped")
	assert.Equal(t, []float64{1.5, 2}, msg.Densities)

	conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestServerConnectDuringPublish(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	const last = 300
	require.NoError(t, s.Publish(testFrame(0)))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for step := 1; step <= last; step++ {
			s.Publish(testFrame(step))
		}
	}()

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	prev := msg.Frame
	for prev < last {
		require.NoError(t, conn.ReadJSON(&msg))
		// a frame published during the connect may repeat, none may be lost
		require.Contains(t, []int{prev, prev + 1}, msg.Frame, "after frame %d", prev)
		prev = msg.Frame
	}
	<-done
}
