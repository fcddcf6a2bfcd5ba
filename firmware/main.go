//go:build rp2040

//go:generate tinygo flash -target=pico

package main

import (
	"machine"
	"time"

	"github.com/itohio/kbtelemetry/pkg/sampler"
)

func main() {
	host := newBoardHost()

	out := newActivityWriter(machine.Serial, PIN_STATUS_LED)

	s := sampler.New(sampler.DefaultConfig(), host, out)

	for {
		s.Poll()
		time.Sleep(LOOP_DELAY_MS * time.Millisecond)
	}
}
