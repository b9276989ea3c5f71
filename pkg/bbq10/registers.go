package bbq10

// Register identifies one addressable unit of keyboard state.
type Register uint8

// Registers. Addresses match the solderparty/arturo182 BBQ10 firmware;
// this table is the wire contract with the firmware and must not drift.
const (
	RegVersion       Register = 0x01 // VER: firmware version, packed nibbles
	RegConfig        Register = 0x02 // CFG: feature flags
	RegInterrupt     Register = 0x03 // INT: pending interrupt flags
	RegKeyStatus     Register = 0x04 // KEY: lock states + FIFO count
	RegBacklight     Register = 0x05 // BKL: keypad backlight level
	RegDebounce      Register = 0x06 // DEB: key debounce time
	RegReportFreq    Register = 0x07 // FRQ: matrix scan/report period
	RegReset         Register = 0x08 // RST: any write reboots the MCU
	RegFIFO          Register = 0x09 // FIF: key event FIFO, [state, code]
	RegBacklight2    Register = 0x0A // BK2: second backlight channel
	RegGPIODir       Register = 0x0B // DIR: expander pin direction
	RegGPIOPullEna   Register = 0x0C // PUE: expander pull enable
	RegGPIOPullDir   Register = 0x0D // PUD: expander pull direction
	RegGPIOValue     Register = 0x0E // GIO: expander pin levels
	RegGPIOIntConfig Register = 0x0F // GIC: expander interrupt enable
	RegGPIOIntStatus Register = 0x10 // GIN: expander interrupt status
	RegHoldThreshold Register = 0x11 // HLD: press-to-held time
	RegAddress       Register = 0x12 // ADR: runtime I2C address
	RegIntDuration   Register = 0x13 // IND: interrupt pulse duration
	RegConfig2       Register = 0x14 // CF2: trackpad/USB flags
	RegTrackpadX     Register = 0x15 // TOX: trackpad delta X, cleared on read
	RegTrackpadY     Register = 0x16 // TOY: trackpad delta Y, cleared on read
)

// writeBit is ORed onto the address byte for write transactions.
const writeBit = 0x80

// Access describes the direction a register supports.
type Access uint8

const (
	ReadOnly Access = 1 << iota
	WriteOnly
	ReadWrite Access = ReadOnly | WriteOnly
)

// regInfo is one row of the register map.
type regInfo struct {
	access Access
	width  uint8
}

// regMap is the immutable register map: access mode and reply width per
// address. Every typed accessor goes through this table.
var regMap = map[Register]regInfo{
	RegVersion:       {ReadOnly, 1},
	RegConfig:        {ReadWrite, 1},
	RegInterrupt:     {ReadWrite, 1},
	RegKeyStatus:     {ReadOnly, 1},
	RegBacklight:     {ReadWrite, 1},
	RegDebounce:      {ReadWrite, 1},
	RegReportFreq:    {ReadWrite, 1},
	RegReset:         {WriteOnly, 1},
	RegFIFO:          {ReadOnly, 2},
	RegBacklight2:    {ReadWrite, 1},
	RegGPIODir:       {ReadWrite, 1},
	RegGPIOPullEna:   {ReadWrite, 1},
	RegGPIOPullDir:   {ReadWrite, 1},
	RegGPIOValue:     {ReadWrite, 1},
	RegGPIOIntConfig: {ReadWrite, 1},
	RegGPIOIntStatus: {ReadWrite, 1},
	RegHoldThreshold: {ReadWrite, 1},
	RegAddress:       {ReadWrite, 1},
	RegIntDuration:   {ReadWrite, 1},
	RegConfig2:       {ReadWrite, 1},
	RegTrackpadX:     {ReadOnly, 1},
	RegTrackpadY:     {ReadOnly, 1},
}

// Registers returns every address in the register map.
func Registers() []Register {
	regs := make([]Register, 0, len(regMap))
	for r := RegVersion; r <= RegTrackpadY; r++ {
		if _, ok := regMap[r]; ok {
			regs = append(regs, r)
		}
	}
	return regs
}

// Width returns the reply width in bytes, or 0 for an unknown register.
func (r Register) Width() uint8 {
	return regMap[r].width
}

// Readable reports whether the register supports read transactions.
func (r Register) Readable() bool {
	return regMap[r].access&ReadOnly != 0
}

// Writable reports whether the register supports write transactions.
func (r Register) Writable() bool {
	return regMap[r].access&WriteOnly != 0
}

// CFG register flags.
const (
	CfgOverflowOn  uint8 = 1 << 0 // new events overwrite oldest when FIFO is full
	CfgOverflowInt uint8 = 1 << 1 // assert interrupt on FIFO overflow
	CfgCapsLockInt uint8 = 1 << 2 // assert interrupt on CapsLock change
	CfgNumLockInt  uint8 = 1 << 3 // assert interrupt on NumLock change
	CfgKeyInt      uint8 = 1 << 4 // assert interrupt on key event
	CfgPanicInt    uint8 = 1 << 5 // assert interrupt on firmware panic
	CfgReportMods  uint8 = 1 << 6 // report modifier keys as their own events
	CfgUseMods     uint8 = 1 << 7 // apply modifiers to reported key codes
)

// INT register flags.
const (
	IntOverflow uint8 = 1 << 0
	IntCapsLock uint8 = 1 << 1
	IntNumLock  uint8 = 1 << 2
	IntKey      uint8 = 1 << 3
	IntPanic    uint8 = 1 << 4
	IntTrackpad uint8 = 1 << 5
)

// KEY status register layout.
const (
	keyNumLockBit  = 1 << 6
	keyCapsLockBit = 1 << 5
	keyCountMask   = 0x1F
)
