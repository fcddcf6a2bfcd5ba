package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/kbtelemetry/pkg/sampler"
)

// Frame is one telemetry line received from the keyboard.
type Frame struct {
	Timestamp time.Time                   // Host receive time
	Values    [sampler.NumChannels]uint16 // Filtered values (0-1023)
}

// Line formats the frame the way the firmware sends it.
func (f Frame) Line() string {
	return string(sampler.AppendLine(nil, f.Values))
}

// ParseLine parses the values of a line sent by the firmware.
// Format: f1|f2|f3|f4 (CR/LF and surrounding spaces are ignored)
// Example: 1023|1023|0|102
func ParseLine(line string) ([sampler.NumChannels]uint16, error) {
	var vals [sampler.NumChannels]uint16

	line = strings.TrimSpace(line)
	parts := strings.Split(line, "|")
	if len(parts) != sampler.NumChannels {
		return vals, fmt.Errorf("invalid line format: expected %d pipe-separated values, got %d", sampler.NumChannels, len(parts))
	}

	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return vals, fmt.Errorf("invalid value for channel %d: %w", i, err)
		}
		if v > sampler.FilteredMax {
			return vals, fmt.Errorf("channel %d out of range: %d (max %d)", i, v, sampler.FilteredMax)
		}
		vals[i] = uint16(v)
	}

	return vals, nil
}
