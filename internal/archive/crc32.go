package archive

// CRC-32 as the ZIP format specifies it: reflected, polynomial 0xEDB88320,
// initial and final XOR 0xFFFFFFFF. Table-driven so the per-entry cost is one
// lookup per byte.

var crcTable = buildCRCTable()

func buildCRCTable() [256]uint32 {
	var table [256]uint32
	for i := 0; i < 256; i++ {
		c := uint32(i)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = 0xEDB88320 ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		table[i] = c
	}
	return table
}

// Checksum computes the CRC-32 of data
func Checksum(data []byte) uint32 {
	c := uint32(0xFFFFFFFF)
	for _, b := range data {
		c = crcTable[(c^uint32(b))&0xFF] ^ (c >> 8)
	}
	return c ^ 0xFFFFFFFF
}
