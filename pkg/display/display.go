//go:build !nodebug

// Package display provides an SSD1306 OLED status panel for debug builds.
// It renders fontless bar indicators: FIFO depth and backlight level on
// the yellow rows (0-1), the last key event's bit pattern and an activity
// blink on the blue rows.
//
// To build without display support (saves RAM and flash), use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/bbq10"
)

const (
	// I2C configuration; the panel shares the keyboard's bus
	i2cAddress = 0x3C

	// Display dimensions
	screenWidth  = 128
	screenHeight = 64

	// Row layout, 16 pixel bands
	bandHeight    = 16
	bandFIFO      = 0 // yellow - FIFO depth bar, 0..31 events
	bandBacklight = 1 // yellow - backlight level bar, 0..255
	bandKeyBits   = 2 // blue - last key event, state+code bit cells
	bandActivity  = 3 // blue - blink block on key activity

	fifoMax = 31
)

// Colors for monochrome display
var (
	black = color.RGBA{0, 0, 0, 0}
	white = color.RGBA{255, 255, 255, 255}
)

// Manager renders keyboard state on the SSD1306.
type Manager struct {
	device *ssd1306.Device
	blink  bool
}

// NewManager initializes the panel on an already-configured I2C bus (the
// FeatherWing puts keyboard and display on the same bus). All methods
// accept a nil Manager as a no-op, so nodebug builds need no call-site
// changes.
func NewManager(bus drivers.I2C) *Manager {
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{
		Address: i2cAddress,
		Width:   screenWidth,
		Height:  screenHeight,
	})
	dev.ClearDisplay()

	return &Manager{device: dev}
}

// ShowStatus redraws the FIFO and backlight bars.
func (m *Manager) ShowStatus(st bbq10.KeyStatus, backlight uint8) {
	if m == nil {
		return
	}
	fill := int16(st.Count) * screenWidth / fifoMax
	if st.CountAmbiguous {
		fill = screenWidth // worst case, FIFO may be full
	}
	m.drawBar(bandFIFO, fill)
	m.drawBar(bandBacklight, int16(backlight)*screenWidth/255)
	m.device.Display()
}

// ShowKey draws the last key event as bit cells (state byte then code
// byte, MSB first) and toggles the activity blink.
func (m *Manager) ShowKey(ev bbq10.KeyEvent) {
	if m == nil {
		return
	}
	m.drawBits(bandKeyBits, byte(ev.State), ev.Code)
	m.blink = !m.blink
	m.fillBand(bandActivity, m.blink)
	m.device.Display()
}

// drawBar fills a band from the left edge to fill pixels.
func (m *Manager) drawBar(band int, fill int16) {
	yStart := int16(band * bandHeight)
	for y := yStart; y < yStart+bandHeight; y++ {
		for x := int16(0); x < screenWidth; x++ {
			c := black
			if x < fill {
				c = white
			}
			m.device.SetPixel(x, y, c)
		}
	}
}

// drawBits renders 16 bit cells of 8 pixels each across a band.
func (m *Manager) drawBits(band int, hi, lo byte) {
	bits := uint16(hi)<<8 | uint16(lo)
	yStart := int16(band * bandHeight)
	cellWidth := int16(screenWidth / 16)
	for cell := int16(0); cell < 16; cell++ {
		on := bits&(1<<(15-cell)) != 0
		for y := yStart + 2; y < yStart+bandHeight-2; y++ {
			for x := cell*cellWidth + 1; x < (cell+1)*cellWidth-1; x++ {
				c := black
				if on {
					c = white
				}
				m.device.SetPixel(x, y, c)
			}
		}
	}
}

// fillBand paints a whole band on or off.
func (m *Manager) fillBand(band int, on bool) {
	c := black
	if on {
		c = white
	}
	yStart := int16(band * bandHeight)
	for y := yStart; y < yStart+bandHeight; y++ {
		for x := int16(0); x < screenWidth; x++ {
			m.device.SetPixel(x, y, c)
		}
	}
}
