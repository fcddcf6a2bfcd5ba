package sampler

import "strconv"

// AppendLine appends "v0|v1|v2|v3\r\n" to dst and returns the extended slice.
func AppendLine(dst []byte, vals [NumChannels]uint16) []byte {
	for i, v := range vals {
		if i > 0 {
			dst = append(dst, '|')
		}
		dst = strconv.AppendUint(dst, uint64(v), 10)
	}
	return append(dst, '\r', '\n')
}
