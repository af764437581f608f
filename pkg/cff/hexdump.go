package cff

import (
	"encoding/hex"
	"strings"
)

const dumpWidth = 16

// HexDump formats b as offset, hex bytes and printable ASCII, 16 bytes per line.
// Offsets start at base so that dumps of a slice line up with the file.
func HexDump(b []byte, base int64) string {
	var sb strings.Builder
	var off [8]byte
	for i := 0; i < len(b); i += dumpWidth {
		line := b[i:min(i+dumpWidth, len(b))]

		pos := uint64(base) + uint64(i)
		for j := range off {
			off[len(off)-1-j] = byte(pos >> (8 * j))
		}
		sb.WriteString(hex.EncodeToString(off[4:]))
		sb.WriteString("  ")

		for j := 0; j < dumpWidth; j++ {
			if j < len(line) {
				sb.WriteString(hex.EncodeToString(line[j : j+1]))
			} else {
				sb.WriteString("  ")
			}
			sb.WriteByte(' ')
			if j == dumpWidth/2-1 {
				sb.WriteByte(' ')
			}
		}

		sb.WriteString(" |")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			sb.WriteByte(c)
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
