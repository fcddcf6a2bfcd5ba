//go:build rp2040

package main

import (
	"machine"
	"time"

	"github.com/itohio/kbtelemetry/pkg/sampler"
)

var _ sampler.Host = (*boardHost)(nil)

// boardHost binds the sampler capabilities to the RP2040 peripherals.
type boardHost struct {
	adcs [sampler.NumChannels]machine.ADC
	boot time.Time
}

func newBoardHost() *boardHost {
	machine.InitADC()

	h := &boardHost{boot: time.Now()}

	cfg := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	for i, pin := range analogPins {
		h.adcs[i] = machine.ADC{Pin: pin}
		h.adcs[i].Configure(cfg)
	}

	PIN_VBUS_SENSE.Configure(machine.PinConfig{Mode: machine.PinInput})

	return h
}

// IsMaster is re-read on every call so a hot-plugged half switches roles.
func (h *boardHost) IsMaster() bool {
	return PIN_VBUS_SENSE.Get()
}

func (h *boardHost) ReadChannel(ch int) uint16 {
	if ch < 0 || ch >= len(h.adcs) {
		return 0
	}
	return h.adcs[ch].Get() >> ADC_SHIFT
}

// Millis wraps after about 49 days; the sampler handles that.
func (h *boardHost) Millis() uint32 {
	return uint32(time.Since(h.boot).Milliseconds())
}
