package bbq10

// GPIO expander access. The keyboard MCU breaks out spare pins behind the
// DIR/PUE/PUD/GIO/GIC/GIN registers, one bit per pin. Which bits are
// wired depends on the board; the driver does not mask unavailable pins.

// PinMode selects the direction of one expander pin.
type PinMode uint8

const (
	PinOutput PinMode = iota
	PinInput
	PinInputPullup
	PinInputPulldown
)

// setBit sets or clears one bit of a register via read-modify-write.
func (d *Device) setBit(reg Register, pin uint8, on bool) error {
	v, err := d.readByte(reg)
	if err != nil {
		return err
	}
	if on {
		v |= 1 << pin
	} else {
		v &^= 1 << pin
	}
	return d.writeByte(reg, v)
}

// SetPinMode configures the direction and pull of one expander pin.
func (d *Device) SetPinMode(pin uint8, mode PinMode) error {
	input := mode != PinOutput
	if err := d.setBit(RegGPIODir, pin, input); err != nil {
		return err
	}
	pull := mode == PinInputPullup || mode == PinInputPulldown
	if err := d.setBit(RegGPIOPullEna, pin, pull); err != nil {
		return err
	}
	if !pull {
		return nil
	}
	return d.setBit(RegGPIOPullDir, pin, mode == PinInputPullup)
}

// Pin returns the level of one expander pin.
func (d *Device) Pin(pin uint8) (bool, error) {
	v, err := d.readByte(RegGPIOValue)
	if err != nil {
		return false, err
	}
	return v&(1<<pin) != 0, nil
}

// SetPin drives one expander output pin.
func (d *Device) SetPin(pin uint8, high bool) error {
	return d.setBit(RegGPIOValue, pin, high)
}

// SetPinInterrupt enables or disables the change interrupt for one pin.
func (d *Device) SetPinInterrupt(pin uint8, on bool) error {
	return d.setBit(RegGPIOIntConfig, pin, on)
}

// PinInterruptStatus returns the pending pin-change flags and clears them.
func (d *Device) PinInterruptStatus() (uint8, error) {
	v, err := d.readByte(RegGPIOIntStatus)
	if err != nil {
		return 0, err
	}
	if v != 0 {
		if err := d.writeByte(RegGPIOIntStatus, 0); err != nil {
			return v, err
		}
	}
	return v, nil
}
