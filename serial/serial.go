// Package serial implements a line-oriented debug console over USB CDC
// serial for poking at the keyboard driver from a PC.
//
// Commands:
//
//	ver        print firmware version
//	stat       print lock states and FIFO count
//	bl N       set keypad backlight (saturating)
//	bl2 N      set second backlight channel
//	deb N      set debounce time in ms
//	rst        reboot the keyboard MCU
//	save       persist current settings to flash
package serial

import (
	"machine"
	"strconv"
	"strings"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/bbq10"
	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/config"
	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/storage"
)

type Serial struct {
	serial   machine.Serialer
	kbd      *bbq10.Device
	settings *config.Settings
	store    *storage.Manager

	inIndex  int
	inBuffer [128]byte
}

// NewSerial creates a console bound to the keyboard and its settings.
// store may be nil when flash storage is unavailable.
func NewSerial(serial machine.Serialer, kbd *bbq10.Device, settings *config.Settings, store *storage.Manager) Serial {
	return Serial{
		serial:   serial,
		kbd:      kbd,
		settings: settings,
		store:    store,
	}
}

// Handle reads and executes commands forever. Run it on its own
// goroutine.
func (s *Serial) Handle() {
	for {
		line := s.read()
		if line == "" {
			continue
		}
		s.write(s.execute(line))
	}
}

// execute runs one command line and returns the reply.
func (s *Serial) execute(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}

	switch fields[0] {
	case "ver":
		v, err := s.kbd.Version()
		if err != nil {
			return "err: " + err.Error()
		}
		return "fw " + v.String()

	case "stat":
		st, err := s.kbd.KeyStatus()
		if err != nil {
			return "err: " + err.Error()
		}
		out := "fifo " + strconv.Itoa(int(st.Count))
		if st.CountAmbiguous {
			out += " (0 or 32)"
		}
		if st.NumLock == bbq10.LockOn {
			out += " num"
		}
		if st.CapsLock == bbq10.LockOn {
			out += " caps"
		}
		return out

	case "bl", "bl2", "deb":
		if len(fields) != 2 {
			return "usage: " + fields[0] + " N"
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return "bad number: " + fields[1]
		}
		if err := s.apply(fields[0], n); err != nil {
			return "err: " + err.Error()
		}
		return "ok"

	case "rst":
		if err := s.kbd.Reset(); err != nil {
			return "err: " + err.Error()
		}
		return "resetting"

	case "save":
		if s.store == nil {
			return "no storage"
		}
		if err := s.store.Save(s.settings); err != nil {
			return "err: " + err.Error()
		}
		return "saved"

	default:
		return "unknown command: " + fields[0]
	}
}

// apply writes one tunable to the device and mirrors it into the
// in-memory settings so a later save persists it.
func (s *Serial) apply(name string, n int) error {
	switch name {
	case "bl":
		if err := s.kbd.SetBacklight(n); err != nil {
			return err
		}
		s.settings.Backlight = clamp(n)
	case "bl2":
		if err := s.kbd.SetBacklight2(n); err != nil {
			return err
		}
		s.settings.Backlight2 = clamp(n)
	case "deb":
		if err := s.kbd.SetDebounce(n); err != nil {
			return err
		}
		s.settings.DebounceMs = clamp(n)
	}
	return nil
}

func clamp(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// read collects bytes until a newline and returns the completed line.
func (s *Serial) read() string {
	b, err := s.serial.ReadByte()
	if err != nil {
		return ""
	}

	if b == '\n' || b == '\r' {
		line := string(s.inBuffer[:s.inIndex])
		s.inIndex = 0
		return line
	}

	if s.inIndex == len(s.inBuffer) {
		s.inIndex = 0
	}

	s.inBuffer[s.inIndex] = b
	s.inIndex++

	return ""
}

func (s *Serial) write(out string) {
	if out == "" {
		return
	}
	s.serial.Write([]byte(out + "\n"))
}
