// Package bbq10 is a driver for the BlackBerry Q10 PMOD / Keyboard
// FeatherWing I2C keyboard (solderparty/arturo182 firmware).
//
// The keyboard MCU exposes a register map over I2C. A read is a write of
// the register address followed by a read of that register's width; a
// write is a single transaction of address|0x80 plus the payload. Key
// events are queued in a bounded firmware FIFO that the host must poll;
// events the host is too slow for are dropped silently by the firmware.
//
// The driver is synchronous and owns no goroutines. A Device assumes
// exclusive, externally synchronized access to its bus address.
package bbq10

import (
	"fmt"

	"tinygo.org/x/drivers"
)

// DefaultAddress is the keyboard's I2C address after power-on.
const DefaultAddress uint16 = 0x1F

// Bus is the byte-level transport the driver speaks through. WriteRead
// performs a write followed by a read in one transaction and reports how
// many reply bytes were produced. The driver never configures the bus.
type Bus interface {
	Write(addr uint16, p []byte) error
	WriteRead(addr uint16, w, r []byte) (int, error)
}

// I2CBus adapts a drivers.I2C (machine.I2C on hardware) to Bus. An I2C
// read always fills the whole buffer, so WriteRead reports len(r).
type I2CBus struct {
	I2C drivers.I2C
}

// Write implements Bus.
func (b I2CBus) Write(addr uint16, p []byte) error {
	return b.I2C.Tx(addr, p, nil)
}

// WriteRead implements Bus.
func (b I2CBus) WriteRead(addr uint16, w, r []byte) (int, error) {
	if err := b.I2C.Tx(addr, w, r); err != nil {
		return 0, err
	}
	return len(r), nil
}

// Version is the firmware version reported by the VER register.
type Version struct {
	Major uint8
	Minor uint8
}

// String formats the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// LockState is a tri-state lock indicator. Unknown happens when the
// firmware's FIFO count rolls over into the CapsLock bit.
type LockState uint8

const (
	LockOff LockState = iota
	LockOn
	LockUnknown
)

// KeyStatus is the decoded KEY register.
type KeyStatus struct {
	NumLock  LockState
	CapsLock LockState
	// Count is the number of events waiting in the FIFO. When
	// CountAmbiguous is set the firmware's count field rolled over and
	// the FIFO holds either 0 or 32 events; Count is 0 in that case.
	Count          uint8
	CountAmbiguous bool
}

// Device is a handle on one keyboard. It holds no state beyond the bus
// and address: the peripheral is stateless between calls from the
// driver's point of view.
type Device struct {
	bus     Bus
	Address uint16
}

// New returns a Device on the given transport at DefaultAddress.
func New(bus Bus) *Device {
	return &Device{bus: bus, Address: DefaultAddress}
}

// NewI2C returns a Device speaking directly over a drivers.I2C bus.
func NewI2C(i2c drivers.I2C) *Device {
	return New(I2CBus{I2C: i2c})
}

// Connected probes the keyboard by reading the version register.
func (d *Device) Connected() bool {
	_, err := d.Version()
	return err == nil
}

// ReadRegister reads one register: a write of the address byte followed
// by a read of the register's width. The reply length must match the
// register map exactly or the call fails with ErrProtocol.
func (d *Device) ReadRegister(reg Register) ([]byte, error) {
	if !reg.Readable() {
		return nil, ErrNotReadable
	}
	buf := make([]byte, reg.Width())
	n, err := d.bus.WriteRead(d.Address, []byte{byte(reg)}, buf)
	if err != nil {
		return nil, &BusError{Op: "read", Reg: reg, Err: err}
	}
	if n != int(reg.Width()) {
		return nil, ErrProtocol
	}
	return buf, nil
}

// WriteRegister writes a payload to one register in a single transaction
// of address|0x80 plus the payload. The payload width is checked against
// the register map before any bus traffic.
func (d *Device) WriteRegister(reg Register, payload []byte) error {
	if !reg.Writable() {
		return ErrNotWritable
	}
	if len(payload) != int(reg.Width()) {
		return ErrInvalidWidth
	}
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(reg) | writeBit
	copy(buf[1:], payload)
	if err := d.bus.Write(d.Address, buf); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

// readByte reads a one-byte register.
func (d *Device) readByte(reg Register) (uint8, error) {
	buf, err := d.ReadRegister(reg)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// writeByte writes a one-byte register.
func (d *Device) writeByte(reg Register, v uint8) error {
	return d.WriteRegister(reg, []byte{v})
}

// Version returns the firmware version, decoded from the packed nibbles
// of the VER register.
func (d *Device) Version() (Version, error) {
	v, err := d.readByte(RegVersion)
	if err != nil {
		return Version{}, err
	}
	return Version{Major: v >> 4, Minor: v & 0x0F}, nil
}

// KeyStatus reads and decodes the KEY register. A set CapsLock bit with a
// zero count is the firmware's count-rollover quirk: the FIFO holds
// either 0 or 32 events and the CapsLock state cannot be trusted.
func (d *Device) KeyStatus() (KeyStatus, error) {
	v, err := d.readByte(RegKeyStatus)
	if err != nil {
		return KeyStatus{}, err
	}
	st := KeyStatus{
		NumLock: LockOff,
		Count:   v & keyCountMask,
	}
	if v&keyNumLockBit != 0 {
		st.NumLock = LockOn
	}
	switch {
	case v&keyCapsLockBit == 0:
		st.CapsLock = LockOff
	case st.Count == 0:
		st.CapsLock = LockUnknown
		st.CountAmbiguous = true
	default:
		st.CapsLock = LockOn
	}
	return st, nil
}

// KeyCount returns the number of key events waiting in the FIFO, 0 when
// nothing is pending. An ambiguous rollover count reads as 0; PopKeyEvent
// still drains those events because it checks the FIFO itself.
func (d *Device) KeyCount() (uint8, error) {
	st, err := d.KeyStatus()
	if err != nil {
		return 0, err
	}
	return st.Count, nil
}

// PopKeyEvent pops and decodes the oldest FIFO entry. It never blocks:
// ok is false when the FIFO is empty. Events lost to firmware-side
// overflow are gone; there is nothing to recover.
func (d *Device) PopKeyEvent() (ev KeyEvent, ok bool, err error) {
	st, err := d.KeyStatus()
	if err != nil {
		return KeyEvent{}, false, err
	}
	if st.Count == 0 && !st.CountAmbiguous {
		return KeyEvent{}, false, nil
	}
	buf, err := d.ReadRegister(RegFIFO)
	if err != nil {
		return KeyEvent{}, false, err
	}
	ev = DecodeKeyEvent(buf[0], buf[1])
	if ev.State == StateIdle {
		// Ambiguous count resolved to an empty FIFO.
		return KeyEvent{}, false, nil
	}
	return ev, true, nil
}

// Drain pops events until the FIFO is empty, calling fn for each, and
// returns how many were delivered. The polling cadence needed to avoid
// firmware-side overflow is still the host's responsibility.
func (d *Device) Drain(fn func(KeyEvent)) (int, error) {
	n := 0
	for {
		ev, ok, err := d.PopKeyEvent()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		fn(ev)
		n++
	}
}

// Backlight returns the keypad backlight level, 0 = off, 255 = max.
func (d *Device) Backlight() (uint8, error) {
	return d.readByte(RegBacklight)
}

// SetBacklight sets the keypad backlight level. Out-of-range levels are
// saturated to 0..255, not rejected.
func (d *Device) SetBacklight(level int) error {
	return d.writeByte(RegBacklight, clampByte(level))
}

// SetBacklight2 sets the second backlight channel (FeatherWing screen
// backlight). Saturating like SetBacklight.
func (d *Device) SetBacklight2(level int) error {
	return d.writeByte(RegBacklight2, clampByte(level))
}

// Reset reboots the keyboard MCU via the RST register. The device is
// unresponsive for 10ms or more afterwards.
func (d *Device) Reset() error {
	if err := d.bus.Write(d.Address, []byte{byte(RegReset) | writeBit}); err != nil {
		return &BusError{Op: "write", Reg: RegReset, Err: err}
	}
	return nil
}

// Config returns the CFG register flags.
func (d *Device) Config() (uint8, error) {
	return d.readByte(RegConfig)
}

// SetConfig writes the CFG register flags (Cfg* constants).
func (d *Device) SetConfig(flags uint8) error {
	return d.writeByte(RegConfig, flags)
}

// InterruptStatus returns the pending INT register flags (Int* constants).
func (d *Device) InterruptStatus() (uint8, error) {
	return d.readByte(RegInterrupt)
}

// ClearInterrupts acknowledges all pending interrupt flags.
func (d *Device) ClearInterrupts() error {
	return d.writeByte(RegInterrupt, 0)
}

// Debounce returns the key debounce time in milliseconds.
func (d *Device) Debounce() (uint8, error) {
	return d.readByte(RegDebounce)
}

// SetDebounce sets the key debounce time in milliseconds, saturating.
func (d *Device) SetDebounce(ms int) error {
	return d.writeByte(RegDebounce, clampByte(ms))
}

// ReportFrequency returns the matrix report period in milliseconds.
func (d *Device) ReportFrequency() (uint8, error) {
	return d.readByte(RegReportFreq)
}

// SetReportFrequency sets the matrix report period in milliseconds,
// saturating.
func (d *Device) SetReportFrequency(ms int) error {
	return d.writeByte(RegReportFreq, clampByte(ms))
}

// HoldThreshold returns the press-to-held time in units of 10ms.
func (d *Device) HoldThreshold() (uint8, error) {
	return d.readByte(RegHoldThreshold)
}

// SetHoldThreshold sets the press-to-held time in units of 10ms,
// saturating.
func (d *Device) SetHoldThreshold(v int) error {
	return d.writeByte(RegHoldThreshold, clampByte(v))
}

// TrackpadMotion returns the accumulated trackpad deltas since the last
// read. The firmware clears both registers on read, so absent a trackpad
// (plain Q10 PMOD) this reports zero motion.
func (d *Device) TrackpadMotion() (dx, dy int8, err error) {
	x, err := d.readByte(RegTrackpadX)
	if err != nil {
		return 0, 0, err
	}
	y, err := d.readByte(RegTrackpadY)
	if err != nil {
		return 0, 0, err
	}
	return int8(x), int8(y), nil
}

// clampByte saturates v to the representable 0..255 range.
func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
