package engine

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePort struct {
	in     *bytes.Reader
	out    bytes.Buffer
	closed bool
}

func newFakePort(reply string) *fakePort {
	return &fakePort{in: bytes.NewReader([]byte(reply))}
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

var _ io.ReadWriteCloser = (*fakePort)(nil)

func TestDLPHandshake(t *testing.T) {
	t.Parallel()

	port := newFakePort("Q")
	d, err := newDLP(port)
	require.NoError(t, err)
	require.Equal(t, []byte{0x27, 0x5C}, port.out.Bytes())
	require.False(t, port.closed)

	port.out.Reset()
	require.NoError(t, d.Set(LineImage))
	require.NoError(t, d.Unset(LineImage))
	require.NoError(t, d.Set("23"))
	require.NoError(t, d.Unset("23"))
	require.Equal(t, "1Q23WE", port.out.String())

	require.NoError(t, d.Close())
	require.True(t, port.closed)
	require.NoError(t, d.Close())
}

func TestDLPBadPing(t *testing.T) {
	t.Parallel()

	for _, reply := range []string{"", "X"} {
		port := newFakePort(reply)
		_, err := newDLP(port)
		require.Error(t, err)
		require.True(t, port.closed)
	}
}

func TestUnsetCommand(t *testing.T) {
	t.Parallel()

	require.Equal(t, []byte("QWERTYUI"), unsetCommand("12345678"))
	require.Equal(t, []byte("x"), unsetCommand("x"))
}

func TestDLPIsMarker(t *testing.T) {
	t.Parallel()

	var _ Marker = (*DLPIO8G)(nil)
}

type timedMarker struct {
	fakeMarker
	set, unset time.Time
}

func (m *timedMarker) Set(lines string) error {
	m.set = time.Now()
	return m.fakeMarker.Set(lines)
}

func (m *timedMarker) Unset(lines string) error {
	m.unset = time.Now()
	return m.fakeMarker.Unset(lines)
}

func TestPulseHoldsLine(t *testing.T) {
	t.Parallel()

	m := &timedMarker{}
	require.NoError(t, Pulse(m, LineSync, SyncPulse))
	require.Equal(t, []string{"set:2", "unset:2"}, m.writes)
	require.GreaterOrEqual(t, m.unset.Sub(m.set), SyncPulse)

	port := newFakePort("Q")
	d, err := newDLP(port)
	require.NoError(t, err)
	port.out.Reset()
	require.NoError(t, d.Pulse("13", time.Millisecond))
	require.Equal(t, "13QE", port.out.String())
}
