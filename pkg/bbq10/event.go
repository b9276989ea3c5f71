package bbq10

import "fmt"

// KeyState is the state half of a FIFO entry.
type KeyState uint8

const (
	StateIdle     KeyState = 0x00 // FIFO was empty
	StatePressed  KeyState = 0x01
	StateHeld     KeyState = 0x02
	StateReleased KeyState = 0x03
	// StateInvalid is the sentinel for state bytes outside the range the
	// firmware documents. Decoding never fails; the firmware is the
	// authority and unexpected patterns must not take the host down.
	StateInvalid KeyState = 0xFF
)

// String returns a short name for the state.
func (s KeyState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateHeld:
		return "held"
	case StateReleased:
		return "released"
	default:
		return "invalid"
	}
}

// Non-printable key codes reported by the Q10 keypad and the FeatherWing
// side buttons. Printable keys report their ASCII value directly.
const (
	KeyJoyUp     uint8 = 0x01
	KeyJoyDown   uint8 = 0x02
	KeyJoyLeft   uint8 = 0x03
	KeyJoyRight  uint8 = 0x04
	KeyJoyCenter uint8 = 0x05
	KeyButton1   uint8 = 0x06 // left outer
	KeyButton2   uint8 = 0x11 // left inner
	KeyButton3   uint8 = 0x07 // right inner
	KeyButton4   uint8 = 0x12 // right outer
	KeyBackspace uint8 = 0x08
	KeyEnter     uint8 = 0x0A
)

// KeyEvent is one decoded FIFO entry. Events arrive oldest first; the
// peripheral drops events silently once its FIFO fills.
type KeyEvent struct {
	State KeyState
	Code  uint8
}

// DecodeKeyEvent decodes a raw [state, code] FIFO pair. It is total: any
// byte pattern produces an event, with undocumented states mapped to
// StateInvalid and the raw code preserved.
func DecodeKeyEvent(state, code byte) KeyEvent {
	s := KeyState(state)
	switch s {
	case StateIdle, StatePressed, StateHeld, StateReleased:
	default:
		s = StateInvalid
	}
	return KeyEvent{State: s, Code: code}
}

// Printable reports whether the key code is a printable ASCII character.
func (e KeyEvent) Printable() bool {
	return e.Code >= 0x20 && e.Code < 0x7F
}

// Rune returns the character for a printable key, or 0.
func (e KeyEvent) Rune() rune {
	if !e.Printable() {
		return 0
	}
	return rune(e.Code)
}

// KeyName returns a short name for the key code. Codes the firmware map
// does not document come back as "unknown".
func (e KeyEvent) KeyName() string {
	switch e.Code {
	case KeyJoyUp:
		return "joy-up"
	case KeyJoyDown:
		return "joy-down"
	case KeyJoyLeft:
		return "joy-left"
	case KeyJoyRight:
		return "joy-right"
	case KeyJoyCenter:
		return "joy-center"
	case KeyButton1:
		return "btn1"
	case KeyButton2:
		return "btn2"
	case KeyButton3:
		return "btn3"
	case KeyButton4:
		return "btn4"
	case KeyBackspace:
		return "backspace"
	case KeyEnter:
		return "enter"
	}
	if e.Printable() {
		return string(rune(e.Code))
	}
	return "unknown"
}

// String formats the event for logs and the serial console.
func (e KeyEvent) String() string {
	return fmt.Sprintf("%s %s(0x%02X)", e.State, e.KeyName(), e.Code)
}
