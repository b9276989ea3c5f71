// Package keyboard bridges decoded BBQ10 key events onto a USB HID
// keyboard, so the RP2040 presents the keypad as a regular keyboard to
// the USB host.
package keyboard

import (
	tgk "machine/usb/hid/keyboard"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/bbq10"
)

// Output is the subset of the TinyGo HID keyboard the bridge drives.
// keyboard.Port() satisfies it.
type Output interface {
	Write(b []byte) (n int, err error)
	Down(c tgk.Keycode) error
	Up(c tgk.Keycode) error
}

// Bridge forwards key events to a HID output. Printable keys are typed
// through Write on press; keys in Special are held down until their
// release event so the USB host can do its own repeat handling.
type Bridge struct {
	out Output
	// Special maps raw BBQ10 key codes to HID keycodes.
	Special map[uint8]tgk.Keycode
}

// NewBridge creates a bridge onto the given HID output.
func NewBridge(out Output) *Bridge {
	return &Bridge{
		out:     out,
		Special: make(map[uint8]tgk.Keycode),
	}
}

// Map registers a raw key code as a special key.
func (b *Bridge) Map(code uint8, kc tgk.Keycode) {
	b.Special[code] = kc
}

// Handle forwards one key event. Held events are ignored: repeat is the
// USB host's job once a special key is down, and the firmware keeps
// reporting printable presses on its own.
func (b *Bridge) Handle(ev bbq10.KeyEvent) error {
	if kc, ok := b.Special[ev.Code]; ok {
		switch ev.State {
		case bbq10.StatePressed:
			return b.out.Down(kc)
		case bbq10.StateReleased:
			return b.out.Up(kc)
		}
		return nil
	}

	if ev.State == bbq10.StatePressed && ev.Printable() {
		_, err := b.out.Write([]byte{ev.Code})
		return err
	}
	return nil
}
