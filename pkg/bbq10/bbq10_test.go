package bbq10

import (
	"bytes"
	"errors"
	"testing"
)

// mockBus emulates the keyboard MCU's register interface for tests.
// It keeps a register file and a key event FIFO and implements the same
// write / write-then-read transaction shapes as the real firmware.
type mockBus struct {
	regs map[Register][]byte
	fifo [][2]byte

	// lock bits mixed into the KEY status byte
	numLock  bool
	capsLock bool
	// statusOverride, when non-nil, is returned verbatim for KEY reads
	statusOverride *byte

	reads     int
	writes    int
	lastWrite []byte

	failNext  error
	shortRead bool
}

func newMockBus() *mockBus {
	return &mockBus{regs: make(map[Register][]byte)}
}

func (m *mockBus) push(state, code byte) {
	m.fifo = append(m.fifo, [2]byte{state, code})
}

func (m *mockBus) statusByte() byte {
	if m.statusOverride != nil {
		return *m.statusOverride
	}
	v := byte(len(m.fifo)) & keyCountMask
	if m.numLock {
		v |= keyNumLockBit
	}
	if m.capsLock {
		v |= keyCapsLockBit
	}
	return v
}

func (m *mockBus) Write(addr uint16, p []byte) error {
	m.writes++
	m.lastWrite = append([]byte(nil), p...)
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	if addr != DefaultAddress {
		return errors.New("no ack")
	}
	reg := Register(p[0] &^ writeBit)
	if len(p) > 1 {
		m.regs[reg] = append([]byte(nil), p[1:]...)
	}
	return nil
}

func (m *mockBus) WriteRead(addr uint16, w, r []byte) (int, error) {
	m.reads++
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return 0, err
	}
	if addr != DefaultAddress {
		return 0, errors.New("no ack")
	}
	reg := Register(w[0])
	switch reg {
	case RegKeyStatus:
		r[0] = m.statusByte()
	case RegFIFO:
		if len(m.fifo) > 0 {
			ev := m.fifo[0]
			m.fifo = m.fifo[1:]
			copy(r, ev[:])
		} else {
			r[0], r[1] = 0, 0
		}
	default:
		copy(r, m.regs[reg])
	}
	n := len(r)
	if m.shortRead && n > 0 {
		n--
	}
	return n, nil
}

func newTestDevice() (*Device, *mockBus) {
	bus := newMockBus()
	return New(bus), bus
}

func TestVersion(t *testing.T) {
	dev, bus := newTestDevice()
	bus.regs[RegVersion] = []byte{0x24}

	v, err := dev.Version()
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v.Major != 2 || v.Minor != 4 {
		t.Errorf("Expected 2.4, got %d.%d", v.Major, v.Minor)
	}
	if v.String() != "2.4" {
		t.Errorf("String: expected %q, got %q", "2.4", v.String())
	}
}

func TestReadRegisterRoundTrip(t *testing.T) {
	dev, bus := newTestDevice()

	for _, reg := range Registers() {
		if !reg.Readable() {
			continue
		}
		want := make([]byte, reg.Width())
		for i := range want {
			want[i] = byte(reg) + byte(i) + 1
		}
		bus.regs[reg] = want
		bus.fifo = [][2]byte{{want[0], want[1%len(want)]}}

		got, err := dev.ReadRegister(reg)
		if err != nil {
			t.Fatalf("ReadRegister(0x%02X) failed: %v", uint8(reg), err)
		}
		if reg == RegKeyStatus {
			continue // composed by the mock, not a stored value
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadRegister(0x%02X): expected %v, got %v", uint8(reg), want, got)
		}
	}
}

func TestReadRegisterShortReply(t *testing.T) {
	dev, bus := newTestDevice()
	bus.regs[RegVersion] = []byte{0x10}
	bus.shortRead = true

	if _, err := dev.ReadRegister(RegVersion); !errors.Is(err, ErrProtocol) {
		t.Fatalf("Expected ErrProtocol, got %v", err)
	}
}

func TestRegisterAccessModes(t *testing.T) {
	dev, _ := newTestDevice()

	if _, err := dev.ReadRegister(RegReset); !errors.Is(err, ErrNotReadable) {
		t.Errorf("Read of RST: expected ErrNotReadable, got %v", err)
	}
	if err := dev.WriteRegister(RegVersion, []byte{0}); !errors.Is(err, ErrNotWritable) {
		t.Errorf("Write of VER: expected ErrNotWritable, got %v", err)
	}
	if _, err := dev.ReadRegister(Register(0x42)); !errors.Is(err, ErrNotReadable) {
		t.Errorf("Read of unknown register: expected ErrNotReadable, got %v", err)
	}
}

func TestWriteRegisterWidthMismatch(t *testing.T) {
	dev, bus := newTestDevice()

	err := dev.WriteRegister(RegBacklight, []byte{1, 2})
	if !errors.Is(err, ErrInvalidWidth) {
		t.Fatalf("Expected ErrInvalidWidth, got %v", err)
	}
	if bus.writes != 0 {
		t.Errorf("Expected no bus transaction, got %d writes", bus.writes)
	}
}

func TestWriteRegisterSetsWriteBit(t *testing.T) {
	dev, bus := newTestDevice()

	if err := dev.WriteRegister(RegBacklight, []byte{0x7F}); err != nil {
		t.Fatalf("WriteRegister failed: %v", err)
	}
	want := []byte{byte(RegBacklight) | writeBit, 0x7F}
	if !bytes.Equal(bus.lastWrite, want) {
		t.Errorf("Expected wire bytes %v, got %v", want, bus.lastWrite)
	}
}

func TestPopKeyEventEmpty(t *testing.T) {
	dev, _ := newTestDevice()

	ev, ok, err := dev.PopKeyEvent()
	if err != nil {
		t.Fatalf("PopKeyEvent failed: %v", err)
	}
	if ok {
		t.Errorf("Expected no event, got %v", ev)
	}
}

func TestPopKeyEventOrder(t *testing.T) {
	dev, bus := newTestDevice()
	bus.push(byte(StatePressed), 'q')
	bus.push(byte(StateHeld), 'q')
	bus.push(byte(StateReleased), 'q')

	want := []KeyState{StatePressed, StateHeld, StateReleased}
	for i, state := range want {
		ev, ok, err := dev.PopKeyEvent()
		if err != nil {
			t.Fatalf("PopKeyEvent %d failed: %v", i, err)
		}
		if !ok {
			t.Fatalf("PopKeyEvent %d: expected event", i)
		}
		if ev.State != state || ev.Code != 'q' {
			t.Errorf("Event %d: expected %v q, got %v", i, state, ev)
		}
	}
	if _, ok, _ := dev.PopKeyEvent(); ok {
		t.Error("Expected drained FIFO")
	}
}

func TestKeyStatusRollover(t *testing.T) {
	dev, bus := newTestDevice()
	// CapsLock bit set with a zero count is the firmware rollover quirk:
	// the FIFO holds 0 or 32 events and CapsLock cannot be trusted.
	override := byte(keyCapsLockBit | keyNumLockBit)
	bus.statusOverride = &override

	st, err := dev.KeyStatus()
	if err != nil {
		t.Fatalf("KeyStatus failed: %v", err)
	}
	if st.CapsLock != LockUnknown {
		t.Errorf("CapsLock: expected LockUnknown, got %v", st.CapsLock)
	}
	if st.NumLock != LockOn {
		t.Errorf("NumLock: expected LockOn, got %v", st.NumLock)
	}
	if !st.CountAmbiguous || st.Count != 0 {
		t.Errorf("Expected ambiguous zero count, got %+v", st)
	}

	// An ambiguous count with an actually-empty FIFO resolves to no event.
	if _, ok, err := dev.PopKeyEvent(); err != nil || ok {
		t.Errorf("Expected no event on empty ambiguous FIFO, got ok=%v err=%v", ok, err)
	}

	// With events queued the ambiguous count still drains.
	bus.push(byte(StatePressed), 'a')
	ev, ok, err := dev.PopKeyEvent()
	if err != nil || !ok {
		t.Fatalf("Expected event, got ok=%v err=%v", ok, err)
	}
	if ev.Code != 'a' {
		t.Errorf("Expected key a, got %v", ev)
	}
}

func TestKeyCount(t *testing.T) {
	dev, bus := newTestDevice()

	n, err := dev.KeyCount()
	if err != nil {
		t.Fatalf("KeyCount failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0, got %d", n)
	}

	bus.push(byte(StatePressed), 'x')
	bus.push(byte(StateReleased), 'x')
	if n, _ = dev.KeyCount(); n != 2 {
		t.Errorf("Expected 2, got %d", n)
	}
}

func TestSetBacklightSaturates(t *testing.T) {
	dev, bus := newTestDevice()

	tests := []struct {
		level int
		want  byte
	}{
		{300, 255},
		{-5, 0},
		{128, 128},
	}
	for _, tt := range tests {
		if err := dev.SetBacklight(tt.level); err != nil {
			t.Fatalf("SetBacklight(%d) failed: %v", tt.level, err)
		}
		if got := bus.regs[RegBacklight][0]; got != tt.want {
			t.Errorf("SetBacklight(%d): expected %d, got %d", tt.level, tt.want, got)
		}
	}
}

func TestBusErrorPropagates(t *testing.T) {
	dev, bus := newTestDevice()
	cause := errors.New("arbitration lost")
	bus.failNext = cause

	_, err := dev.Version()
	var be *BusError
	if !errors.As(err, &be) {
		t.Fatalf("Expected *BusError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", be.Err)
	}
	if be.Reg != RegVersion {
		t.Errorf("Expected RegVersion context, got 0x%02X", uint8(be.Reg))
	}
}

func TestReset(t *testing.T) {
	dev, bus := newTestDevice()

	if err := dev.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	want := []byte{byte(RegReset) | writeBit}
	if !bytes.Equal(bus.lastWrite, want) {
		t.Errorf("Expected wire bytes %v, got %v", want, bus.lastWrite)
	}
}

func TestDrain(t *testing.T) {
	dev, bus := newTestDevice()
	bus.push(byte(StatePressed), 'h')
	bus.push(byte(StatePressed), 'i')

	var codes []byte
	n, err := dev.Drain(func(ev KeyEvent) {
		codes = append(codes, ev.Code)
	})
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if n != 2 || !bytes.Equal(codes, []byte("hi")) {
		t.Errorf("Expected 2 events h i, got %d %q", n, codes)
	}
}

func TestTrackpadMotion(t *testing.T) {
	dev, bus := newTestDevice()
	bus.regs[RegTrackpadX] = []byte{0xFB} // -5
	bus.regs[RegTrackpadY] = []byte{0x0C} // +12

	dx, dy, err := dev.TrackpadMotion()
	if err != nil {
		t.Fatalf("TrackpadMotion failed: %v", err)
	}
	if dx != -5 || dy != 12 {
		t.Errorf("Expected (-5, 12), got (%d, %d)", dx, dy)
	}
}

func TestPinModeAndLevel(t *testing.T) {
	dev, bus := newTestDevice()
	bus.regs[RegGPIODir] = []byte{0x00}
	bus.regs[RegGPIOPullEna] = []byte{0x00}
	bus.regs[RegGPIOPullDir] = []byte{0x00}
	bus.regs[RegGPIOValue] = []byte{0x00}

	if err := dev.SetPinMode(3, PinInputPullup); err != nil {
		t.Fatalf("SetPinMode failed: %v", err)
	}
	if bus.regs[RegGPIODir][0] != 1<<3 {
		t.Errorf("DIR: expected bit 3 set, got %08b", bus.regs[RegGPIODir][0])
	}
	if bus.regs[RegGPIOPullEna][0] != 1<<3 || bus.regs[RegGPIOPullDir][0] != 1<<3 {
		t.Errorf("Pull config wrong: PUE=%08b PUD=%08b",
			bus.regs[RegGPIOPullEna][0], bus.regs[RegGPIOPullDir][0])
	}

	if err := dev.SetPin(5, true); err != nil {
		t.Fatalf("SetPin failed: %v", err)
	}
	high, err := dev.Pin(5)
	if err != nil {
		t.Fatalf("Pin failed: %v", err)
	}
	if !high {
		t.Error("Expected pin 5 high")
	}
}
