package meter

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// IEC 62056-21 control characters.
const (
	stx byte = 0x02
	etx byte = 0x03
	ack byte = 0x06
)

// signOn is the mode C request message: ask any meter on the line to
// identify itself and offer a readout.
var signOn = []byte("/?!\r\n")

// SerialConfig describes the optical head connection. IEC 62056-21
// framing is 7 data bits, even parity, one stop bit at every rate.
type SerialConfig struct {
	Device  string        // e.g. /dev/ttyUSB0
	Baud    int           // line rate; the session stays at this rate
	Timeout time.Duration // per-read timeout on the port
}

// SerialSource reads a meter over an optical probe on a serial port.
// Each Read performs one full mode C exchange: sign-on, identification,
// readout request, data telegram, BCC verification.
type SerialSource struct {
	port  *serial.Port
	rd    *bufio.Reader
	clock Clock
	baud  int
}

// OpenSerial opens the optical head. The clock stamps every reading;
// pass the same clock the gauges are driven with.
func OpenSerial(cfg SerialConfig, clock Clock) (*SerialSource, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		Size:        7,
		Parity:      serial.ParityEven,
		StopBits:    serial.Stop1,
		ReadTimeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return &SerialSource{
		port:  port,
		rd:    bufio.NewReader(port),
		clock: clock,
		baud:  cfg.Baud,
	}, nil
}

// Read performs one readout exchange and returns the parsed registers.
func (s *SerialSource) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	if _, err := s.port.Write(signOn); err != nil {
		return Reading{}, fmt.Errorf("sign-on: %w", err)
	}
	ident, err := s.rd.ReadString('\n')
	if err != nil {
		return Reading{}, fmt.Errorf("identification: %w", err)
	}
	if !strings.HasPrefix(ident, "/") {
		return Reading{}, fmt.Errorf("%w: identification %q", ErrBadFrame, ident)
	}

	// Acknowledge with a readout request. The baud identifier echoes
	// the rate we are already running at, so the meter does not switch
	// and the port stays valid for the data block.
	opt := []byte{ack, '0', baudID(s.baud), '0', '\r', '\n'}
	if _, err := s.port.Write(opt); err != nil {
		return Reading{}, fmt.Errorf("readout request: %w", err)
	}

	body, err := s.readFrame(ctx)
	if err != nil {
		return Reading{}, err
	}
	tel, err := ParseTelegram(body)
	if err != nil {
		return Reading{}, err
	}
	return tel.Reading(s.clock.Millis())
}

// readFrame consumes the data block: discards noise before STX, then
// collects everything up to and including ETX plus the trailing BCC.
func (s *SerialSource) readFrame(ctx context.Context) ([]byte, error) {
	for {
		b, err := s.rd.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("frame start: %w", err)
		}
		if b == stx {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	checked := make([]byte, 0, 256) // frame bytes covered by the BCC
	for {
		b, err := s.rd.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("frame body: %w", err)
		}
		checked = append(checked, b)
		if b == etx {
			break
		}
	}
	bcc, err := s.rd.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("bcc: %w", err)
	}
	if got := BCC(checked); got != bcc {
		return nil, fmt.Errorf("%w: got %#02x want %#02x", ErrBadChecksum, got, bcc)
	}
	return checked[:len(checked)-1], nil // strip the ETX
}

// Close releases the serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

// baudID maps a line rate to its IEC 62056-21 mode C identification
// character.
func baudID(baud int) byte {
	switch baud {
	case 600:
		return '1'
	case 1200:
		return '2'
	case 2400:
		return '3'
	case 4800:
		return '4'
	case 9600:
		return '5'
	case 19200:
		return '6'
	default:
		return '0' // 300 baud, the mode C wake-up rate
	}
}
