package ds18b20

// CRC8 computes the Dallas/Maxim 1-Wire CRC-8 over data. The polynomial is
// x^8 + x^5 + x^4 + 1, processed LSB-first (0x8C reflected form). The last
// byte of every ROM code is the CRC of the preceding seven.
func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ 0x8C
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
