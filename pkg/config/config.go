// Package config defines the persisted keyboard settings.
// The struct is designed for zero-allocation binary serialization.
package config

import (
	"encoding/binary"
	"errors"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/bbq10"
)

// CurrentVersion is the settings format version.
// Bump this when making breaking changes to the layout.
// When firmware boots and finds a different version in flash, settings are wiped.
const CurrentVersion uint16 = 1

// SettingsSize is the serialized size of Settings in bytes.
const SettingsSize = 12

// Settings is what gets pushed into the keyboard MCU at boot.
// This is a fixed-size struct for zero-allocation binary serialization.
// Total size: 12 bytes
// Layout:
//   [0-1]:   Version (uint16)
//   [2]:     Backlight (uint8)
//   [3]:     Backlight2 (uint8)
//   [4]:     DebounceMs (uint8)
//   [5]:     ReportFreqMs (uint8)
//   [6]:     HoldThreshold (uint8, 10ms units)
//   [7]:     ConfigFlags (uint8, CFG register bits)
//   [8-9]:   PollIntervalMs (uint16, host-side FIFO poll cadence)
//   [10-11]: Reserved (uint16)
type Settings struct {
	Version        uint16
	Backlight      uint8
	Backlight2     uint8
	DebounceMs     uint8
	ReportFreqMs   uint8
	HoldThreshold  uint8
	ConfigFlags    uint8
	PollIntervalMs uint16
	Reserved       uint16
}

// Errors
var (
	ErrInvalidSize = errors.New("invalid settings size")
)

// Default returns settings matching the keyboard firmware's power-on
// defaults, with a 10ms host poll cadence.
func Default() Settings {
	return Settings{
		Version:        CurrentVersion,
		Backlight:      255,
		Backlight2:     255,
		DebounceMs:     10,
		ReportFreqMs:   5,
		HoldThreshold:  30,
		ConfigFlags:    bbq10.CfgOverflowInt | bbq10.CfgKeyInt | bbq10.CfgUseMods,
		PollIntervalMs: 10,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler for Settings.
func (s *Settings) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SettingsSize)
	binary.LittleEndian.PutUint16(buf[0:], s.Version)
	buf[2] = s.Backlight
	buf[3] = s.Backlight2
	buf[4] = s.DebounceMs
	buf[5] = s.ReportFreqMs
	buf[6] = s.HoldThreshold
	buf[7] = s.ConfigFlags
	binary.LittleEndian.PutUint16(buf[8:], s.PollIntervalMs)
	binary.LittleEndian.PutUint16(buf[10:], s.Reserved)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Settings.
func (s *Settings) UnmarshalBinary(data []byte) error {
	if len(data) < SettingsSize {
		return ErrInvalidSize
	}

	s.Version = binary.LittleEndian.Uint16(data[0:])
	s.Backlight = data[2]
	s.Backlight2 = data[3]
	s.DebounceMs = data[4]
	s.ReportFreqMs = data[5]
	s.HoldThreshold = data[6]
	s.ConfigFlags = data[7]
	s.PollIntervalMs = binary.LittleEndian.Uint16(data[8:])
	s.Reserved = binary.LittleEndian.Uint16(data[10:])
	return nil
}

// Apply pushes the settings into the keyboard's registers. The first
// failing register aborts the push; each write is independent, so a
// partial push leaves the device in a usable state.
func (s *Settings) Apply(dev *bbq10.Device) error {
	if err := dev.SetBacklight(int(s.Backlight)); err != nil {
		return err
	}
	if err := dev.SetBacklight2(int(s.Backlight2)); err != nil {
		return err
	}
	if err := dev.SetDebounce(int(s.DebounceMs)); err != nil {
		return err
	}
	if err := dev.SetReportFrequency(int(s.ReportFreqMs)); err != nil {
		return err
	}
	if err := dev.SetHoldThreshold(int(s.HoldThreshold)); err != nil {
		return err
	}
	return dev.SetConfig(s.ConfigFlags)
}
