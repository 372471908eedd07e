package engine

import (
	"io"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

const (
	dlpPing   = 0x27 // '
	dlpBinary = 0x5C // \
	dlpPong   = 'Q'

	DefaultDLPBaud = 9600
)

// DLPIO8G drives the eight TTL lines of a DLP-IO8-G box. Lines are named
// "1".."8"; writing a digit raises the line, its QWERTYUI counterpart lowers it.
type DLPIO8G struct {
	port io.ReadWriteCloser
}

func NewDLPIO8G(device string, baudrate int) (*DLPIO8G, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", device)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, errors.Trace(err)
	}
	d, err := newDLP(port)
	if err != nil {
		return nil, errors.Annotatef(err, "dlp %s", device)
	}
	log.Info("trigger box ready", zap.String("device", device), zap.Int("baud", baudrate))
	return d, nil
}

// newDLP pings the box and switches it to binary mode.
func newDLP(port io.ReadWriteCloser) (*DLPIO8G, error) {
	d := &DLPIO8G{port: port}
	if !d.Ping() {
		port.Close()
		return nil, errors.New("device did not respond to ping correctly")
	}
	if _, err := port.Write([]byte{dlpBinary}); err != nil {
		port.Close()
		return nil, errors.Trace(err)
	}
	return d, nil
}

func (d *DLPIO8G) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return errors.Trace(err)
}

func (d *DLPIO8G) Ping() bool {
	if _, err := d.port.Write([]byte{dlpPing}); err != nil {
		return false
	}
	buf := make([]byte, 1)
	n, err := d.port.Read(buf)
	return err == nil && n == 1 && buf[0] == dlpPong
}

func (d *DLPIO8G) Set(lines string) error {
	_, err := d.port.Write([]byte(lines))
	return errors.Annotate(err, "dlp set")
}

func (d *DLPIO8G) Unset(lines string) error {
	_, err := d.port.Write(unsetCommand(lines))
	return errors.Annotate(err, "dlp unset")
}

// Pulse raises lines for d and lowers them again.
func (d *DLPIO8G) Pulse(lines string, dur time.Duration) error {
	return Pulse(d, lines, dur)
}

func unsetCommand(lines string) []byte {
	cmd := []byte(lines)
	for i := range cmd {
		switch cmd[i] {
		case '1':
			cmd[i] = 'Q'
		case '2':
			cmd[i] = 'W'
		case '3':
			cmd[i] = 'E'
		case '4':
			cmd[i] = 'R'
		case '5':
			cmd[i] = 'T'
		case '6':
			cmd[i] = 'Y'
		case '7':
			cmd[i] = 'U'
		case '8':
			cmd[i] = 'I'
		}
	}
	return cmd
}
