package trie

// Hex-prefix (HP) encoding as specified in the Ethereum Yellow Paper,
// Appendix C. Keys are expanded to hex nibble sequences (0x0-0xf) with a
// terminator nibble 0x10 marking leaf keys; HP encoding packs the nibbles
// back into bytes with a flag prefix carrying the parity and leaf bits.

const terminatorNibble = 16

// keybytesToHex expands a byte key into a nibble sequence with a trailing
// terminator nibble.
func keybytesToHex(key []byte) []byte {
	l := len(key)*2 + 1
	nibbles := make([]byte, l)
	for i, b := range key {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	nibbles[l-1] = terminatorNibble
	return nibbles
}

// hexToCompact converts a nibble sequence (with optional terminator) to the
// hex-prefix encoding. Bit 5 of the first byte flags a leaf, bit 4 an odd
// nibble count; for odd counts the first nibble rides in the low half of the
// flag byte.
func hexToCompact(hex []byte) []byte {
	terminator := byte(0)
	if hasTerm(hex) {
		terminator = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator << 5
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4
		buf[0] |= hex[0]
		hex = hex[1:]
	}
	packNibbles(hex, buf[1:])
	return buf
}

// compactToHex reverses hexToCompact, restoring the terminator nibble for
// leaf keys.
func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	base = base[:len(base)-1] // keybytesToHex appends a terminator; drop it
	chop := 2 - base[0]&1
	if base[0]&2 != 0 {
		// Leaf: re-append the terminator.
		out := make([]byte, len(base)-int(chop)+1)
		copy(out, base[chop:])
		out[len(out)-1] = terminatorNibble
		return out
	}
	return base[chop:]
}

// packNibbles packs pairs of nibbles into bytes.
func packNibbles(nibbles, out []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		out[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// hasTerm reports whether the nibble sequence ends with the terminator.
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminatorNibble
}
