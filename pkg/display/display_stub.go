//go:build nodebug

// Package display provides a no-op stub when built with the nodebug tag.
// This saves memory by excluding the SSD1306 driver and panel code.
//
// To build without display support, use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

import (
	"tinygo.org/x/drivers"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/bbq10"
)

// Manager is a no-op stub when the nodebug build tag is used.
type Manager struct{}

// NewManager returns nil when the nodebug build tag is used.
// Callers handle a nil manager gracefully.
func NewManager(bus drivers.I2C) *Manager {
	return nil
}

// ShowStatus is a no-op in nodebug mode.
func (m *Manager) ShowStatus(st bbq10.KeyStatus, backlight uint8) {}

// ShowKey is a no-op in nodebug mode.
func (m *Manager) ShowKey(ev bbq10.KeyEvent) {}
