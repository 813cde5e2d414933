package meter

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Register identifiers used by the readout. The ME-162 family labels
// its registers in plain OBIS-like notation.
const (
	RegisterImport = "1.8.0" // cumulative import, total tariff
	RegisterExport = "2.8.0" // cumulative export, total tariff
)

// Telegram is a parsed IEC 62056-21 data readout: the register lines
// between STX and the terminating "!" line.
type Telegram struct {
	registers map[string]string
}

// ParseTelegram parses the text of a data block. Lines look like
//
//	1.8.0(0033130.260*kWh)
//	C.1.0(12345678)
//
// and the block ends with a lone "!". Empty lines are tolerated;
// anything else malformed fails the whole telegram, since a garbled
// line means the optical link glitched and the frame is suspect.
func ParseTelegram(body []byte) (*Telegram, error) {
	t := &Telegram{registers: make(map[string]string)}
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "!" {
			break
		}
		open := strings.IndexByte(line, '(')
		if open <= 0 || !strings.HasSuffix(line, ")") {
			return nil, fmt.Errorf("%w: %q", ErrBadFrame, line)
		}
		t.registers[line[:open]] = line[open+1 : len(line)-1]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Register returns a register's raw value text.
func (t *Telegram) Register(id string) (string, bool) {
	v, ok := t.registers[id]
	return v, ok
}

// EnergyWh returns a register's value converted to whole watt-hours.
// Sub-watt-hour digits are truncated; the gauges only ever see the
// counter tick on whole units.
func (t *Telegram) EnergyWh(id string) (uint64, error) {
	v, ok := t.registers[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoRegister, id)
	}
	return parseEnergyWh(v)
}

// Reading assembles a Reading from the import and export registers.
// The export register is optional; one-way meters simply do not have
// it and report zero.
func (t *Telegram) Reading(timeMillis uint64) (Reading, error) {
	imp, err := t.EnergyWh(RegisterImport)
	if err != nil {
		return Reading{}, err
	}
	var exp uint64
	if _, ok := t.registers[RegisterExport]; ok {
		if exp, err = t.EnergyWh(RegisterExport); err != nil {
			return Reading{}, err
		}
	}
	return Reading{TimeMillis: timeMillis, ImportWh: imp, ExportWh: exp}, nil
}

// parseEnergyWh converts a register value like "0033130.260*kWh" or
// "1234*Wh" to watt-hours.
func parseEnergyWh(v string) (uint64, error) {
	num, unit := v, ""
	if i := strings.IndexByte(v, '*'); i >= 0 {
		num, unit = v[:i], v[i+1:]
	}

	var fracDigits int
	switch unit {
	case "kWh":
		fracDigits = 3
	case "Wh", "":
		fracDigits = 0
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadUnit, unit)
	}

	intPart, fracPart := num, ""
	if i := strings.IndexByte(num, '.'); i >= 0 {
		intPart, fracPart = num[:i], num[i+1:]
	}
	whole, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadFrame, v)
	}
	for i := 0; i < fracDigits; i++ {
		whole *= 10
		if i < len(fracPart) {
			d := fracPart[i]
			if d < '0' || d > '9' {
				return 0, fmt.Errorf("%w: %q", ErrBadFrame, v)
			}
			whole += uint64(d - '0')
		}
	}
	return whole, nil
}

// BCC computes the IEC 62056-21 block check character: XOR over the
// frame bytes after SOH/STX up to and including ETX.
func BCC(data []byte) byte {
	var c byte
	for _, b := range data {
		c ^= b
	}
	return c
}
