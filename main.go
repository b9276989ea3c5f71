package main

import (
	"machine"
	tgk "machine/usb/hid/keyboard"
	"time"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/bbq10"
	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/config"
	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/display"
	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/keyboard"
	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/storage"
	"github.com/tuffrabit/tinygo-bbq10kbd/serial"
)

// MAIN THREAD DUTIES
// - bring up the shared I2C bus and the keyboard MCU
// - load persisted settings from flash and push them into the keyboard
// - run the FIFO poll loop, feeding the USB HID bridge and status panel

const statusEvery = 50 // poll iterations between panel status redraws

func main() {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		SCL:       machine.GPIO1,
		SDA:       machine.GPIO0,
		Frequency: 400000,
	}); err != nil {
		panic(err)
	}

	kbd := bbq10.NewI2C(i2c)

	// The keyboard MCU is slow to come up after power-on.
	for i := 0; i < 50 && !kbd.Connected(); i++ {
		time.Sleep(10 * time.Millisecond)
	}

	settings := config.Default()
	store, err := storage.New(machine.Flash, true)
	if err == nil {
		if loadErr := store.Load(&settings); loadErr != nil {
			settings = config.Default()
		}
	} else {
		store = nil
	}
	settings.Apply(kbd)

	panel := display.NewManager(i2c)

	console := serial.NewSerial(machine.Serial, kbd, &settings, store)
	go console.Handle()

	bridge := keyboard.NewBridge(tgk.Port())
	bridge.Map(bbq10.KeyJoyUp, tgk.KeyUp)
	bridge.Map(bbq10.KeyJoyDown, tgk.KeyDown)
	bridge.Map(bbq10.KeyJoyLeft, tgk.KeyLeft)
	bridge.Map(bbq10.KeyJoyRight, tgk.KeyRight)
	bridge.Map(bbq10.KeyJoyCenter, tgk.KeyEnter)
	bridge.Map(bbq10.KeyEnter, tgk.KeyEnter)
	bridge.Map(bbq10.KeyBackspace, tgk.KeyBackspace)

	interval := time.Duration(settings.PollIntervalMs) * time.Millisecond
	for n := 0; ; n++ {
		kbd.Drain(func(ev bbq10.KeyEvent) {
			bridge.Handle(ev)
			panel.ShowKey(ev)
		})

		if n%statusEvery == 0 {
			if st, err := kbd.KeyStatus(); err == nil {
				panel.ShowStatus(st, settings.Backlight)
			}
		}

		time.Sleep(interval)
	}
}
