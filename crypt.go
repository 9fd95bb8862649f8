package pgv2

// Traditional Unix crypt(3), DES-based, for AuthCrypt (areq 4,
// SPEC_FULL.md §4.2). Nothing in the example pack or golang.org/x/crypto
// implements this: x/crypto has bcrypt/scrypt/argon2/pbkdf2, all designed
// to replace crypt(3), not reproduce it. That leaves hand-rolling the
// classic 25-round salted DES construction directly against the standard
// permutation tables, justified as a stdlib-only component in DESIGN.md.

var ipTab = [64]byte{
	58, 50, 42, 34, 26, 18, 10, 2, 60, 52, 44, 36, 28, 20, 12, 4,
	62, 54, 46, 38, 30, 22, 14, 6, 64, 56, 48, 40, 32, 24, 16, 8,
	57, 49, 41, 33, 25, 17, 9, 1, 59, 51, 43, 35, 27, 19, 11, 3,
	61, 53, 45, 37, 29, 21, 13, 5, 63, 55, 47, 39, 31, 23, 15, 7,
}

var fpTab = [64]byte{
	40, 8, 48, 16, 56, 24, 64, 32, 39, 7, 47, 15, 55, 23, 63, 31,
	38, 6, 46, 14, 54, 22, 62, 30, 37, 5, 45, 13, 53, 21, 61, 29,
	36, 4, 44, 12, 52, 20, 60, 28, 35, 3, 43, 11, 51, 19, 59, 27,
	34, 2, 42, 10, 50, 18, 58, 26, 33, 1, 41, 9, 49, 17, 57, 25,
}

var pc1Tab = [56]byte{
	57, 49, 41, 33, 25, 17, 9, 1, 58, 50, 42, 34, 26, 18,
	10, 2, 59, 51, 43, 35, 27, 19, 11, 3, 60, 52, 44, 36,
	63, 55, 47, 39, 31, 23, 15, 7, 62, 54, 46, 38, 30, 22,
	14, 6, 61, 53, 45, 37, 29, 21, 13, 5, 28, 20, 12, 4,
}

var pc2Tab = [48]byte{
	14, 17, 11, 24, 1, 5, 3, 28, 15, 6, 21, 10,
	23, 19, 12, 4, 26, 8, 16, 7, 27, 20, 13, 2,
	41, 52, 31, 37, 47, 55, 30, 40, 51, 45, 33, 48,
	44, 49, 39, 56, 34, 53, 46, 42, 50, 36, 29, 32,
}

var shifts = [16]byte{1, 1, 2, 2, 2, 2, 2, 2, 1, 2, 2, 2, 2, 2, 2, 1}

var eTab = [48]byte{
	32, 1, 2, 3, 4, 5, 4, 5, 6, 7, 8, 9,
	8, 9, 10, 11, 12, 13, 12, 13, 14, 15, 16, 17,
	16, 17, 18, 19, 20, 21, 20, 21, 22, 23, 24, 25,
	24, 25, 26, 27, 28, 29, 28, 29, 30, 31, 32, 1,
}

var pTab = [32]byte{
	16, 7, 20, 21, 29, 12, 28, 17, 1, 15, 23, 26, 5, 18, 31, 10,
	2, 8, 24, 14, 32, 27, 3, 9, 19, 13, 30, 6, 22, 11, 4, 25,
}

var sBox = [8][64]byte{
	{14, 4, 13, 1, 2, 15, 11, 8, 3, 10, 6, 12, 5, 9, 0, 7, 0, 15, 7, 4, 14, 2, 13, 1, 10, 6, 12, 11, 9, 5, 3, 8, 4, 1, 14, 8, 13, 6, 2, 11, 15, 12, 9, 7, 3, 10, 5, 0, 15, 12, 8, 2, 4, 9, 1, 7, 5, 11, 3, 14, 10, 0, 6, 13},
	{15, 1, 8, 14, 6, 11, 3, 4, 9, 7, 2, 13, 12, 0, 5, 10, 3, 13, 4, 7, 15, 2, 8, 14, 12, 0, 1, 10, 6, 9, 11, 5, 0, 14, 7, 11, 10, 4, 13, 1, 5, 8, 12, 6, 9, 3, 2, 15, 13, 8, 10, 1, 3, 15, 4, 2, 11, 6, 7, 12, 0, 5, 14, 9},
	{10, 0, 9, 14, 6, 3, 15, 5, 1, 13, 12, 7, 11, 4, 2, 8, 13, 7, 0, 9, 3, 4, 6, 10, 2, 8, 5, 14, 12, 11, 15, 1, 13, 6, 4, 9, 8, 15, 3, 0, 11, 1, 2, 12, 5, 10, 14, 7, 1, 10, 13, 0, 6, 9, 8, 7, 4, 15, 14, 3, 11, 5, 2, 12},
	{7, 13, 14, 3, 0, 6, 9, 10, 1, 2, 8, 5, 11, 12, 4, 15, 13, 8, 11, 5, 6, 15, 0, 3, 4, 7, 2, 12, 1, 10, 14, 9, 10, 6, 9, 0, 12, 11, 7, 13, 15, 1, 3, 14, 5, 2, 8, 4, 3, 15, 0, 6, 10, 1, 13, 8, 9, 4, 5, 11, 12, 7, 2, 14},
	{2, 12, 4, 1, 7, 10, 11, 6, 8, 5, 3, 15, 13, 0, 14, 9, 14, 11, 2, 12, 4, 7, 13, 1, 5, 0, 15, 10, 3, 9, 8, 6, 4, 2, 1, 11, 10, 13, 7, 8, 15, 9, 12, 5, 6, 3, 0, 14, 11, 8, 12, 7, 1, 14, 2, 13, 6, 15, 0, 9, 10, 4, 5, 3},
	{12, 1, 10, 15, 9, 2, 6, 8, 0, 13, 3, 4, 14, 7, 5, 11, 10, 15, 4, 2, 7, 12, 9, 5, 6, 1, 13, 14, 0, 11, 3, 8, 9, 14, 15, 5, 2, 8, 12, 3, 7, 0, 4, 10, 1, 13, 11, 6, 4, 3, 2, 12, 9, 5, 15, 10, 11, 14, 1, 7, 6, 0, 8, 13},
	{4, 11, 2, 14, 15, 0, 8, 13, 3, 12, 9, 7, 5, 10, 6, 1, 13, 0, 11, 7, 4, 9, 1, 10, 14, 3, 5, 12, 2, 15, 8, 6, 1, 4, 11, 13, 12, 3, 7, 14, 10, 15, 6, 8, 0, 5, 9, 2, 6, 11, 13, 8, 1, 4, 10, 7, 9, 5, 0, 15, 14, 2, 3, 12},
	{13, 2, 8, 4, 6, 15, 11, 1, 10, 9, 3, 14, 5, 0, 12, 7, 1, 15, 13, 8, 10, 3, 7, 4, 12, 5, 6, 11, 0, 14, 9, 2, 7, 11, 4, 1, 9, 12, 14, 2, 0, 6, 10, 13, 15, 3, 5, 8, 2, 1, 14, 7, 4, 10, 8, 13, 15, 12, 9, 0, 3, 5, 6, 11},
}

func bitsToBytes56(key []byte) [56]byte {
	var out [56]byte
	for i := 0; i < 56; i++ {
		byteIdx := pc1Tab[i] - 1
		out[i] = (key[byteIdx/8] >> (7 - byteIdx%8)) & 1
	}
	return out
}

// permute expands bits according to table, where table[i] is the 1-based
// source bit position for output position i.
func permute(bits []byte, table []byte) []byte {
	out := make([]byte, len(table))
	for i, p := range table {
		out[i] = bits[p-1]
	}
	return out
}

// desCryptBlock enciphers a 64-bit all-zero block by running full DES
// encipherment (IP, 16 Feistel rounds, swap, FP) 25 times in a row, feeding
// each repeat's ciphertext back in as the next repeat's plaintext — the
// construction classic crypt(3) uses in place of a single DES pass. The
// E-table is permuted per the salt before any of that: for each of its 24
// bits, if set, E-table output positions i and i+24 are swapped. Returns 8
// result bytes.
func desCryptBlock(key [8]byte, salt uint32) [8]byte {
	pc1 := bitsToBytes56(key[:])
	c := pc1[:28]
	d := pc1[28:]

	var subkeys [16][48]byte
	cc := append([]byte{}, c...)
	dd := append([]byte{}, d...)
	for round := 0; round < 16; round++ {
		for s := byte(0); s < shifts[round]; s++ {
			cc = append(cc[1:], cc[0])
			dd = append(dd[1:], dd[0])
		}
		cd := append(append([]byte{}, cc...), dd...)
		for i := 0; i < 48; i++ {
			subkeys[round][i] = cd[pc2Tab[i]-1]
		}
	}

	e := eTab
	for i := 0; i < 24; i++ {
		if (salt>>uint(i))&1 == 1 {
			e[i], e[i+24] = e[i+24], e[i]
		}
	}

	block := make([]byte, 64) // all-zero 64-bit plaintext
	for rep := 0; rep < 25; rep++ {
		ipBlock := permute(block, ipTab[:])
		l := append([]byte{}, ipBlock[:32]...)
		r := append([]byte{}, ipBlock[32:]...)
		for iter := 0; iter < 16; iter++ {
			var expanded [48]byte
			for i := 0; i < 48; i++ {
				expanded[i] = r[e[i]-1]
			}
			for i := range expanded {
				expanded[i] ^= subkeys[iter][i]
			}
			var sOut [32]byte
			for b := 0; b < 8; b++ {
				chunk := expanded[b*6 : b*6+6]
				row := chunk[0]<<1 | chunk[5]
				col := chunk[1]<<3 | chunk[2]<<2 | chunk[3]<<1 | chunk[4]
				val := sBox[b][row*16+col]
				for bit := 0; bit < 4; bit++ {
					sOut[b*4+bit] = (val >> uint(3-bit)) & 1
				}
			}
			var pOut [32]byte
			for i := 0; i < 32; i++ {
				pOut[i] = sOut[pTab[i]-1]
			}
			newR := make([]byte, 32)
			for i := range newR {
				newR[i] = l[i] ^ pOut[i]
			}
			l, r = r, newR
		}
		// DES swaps L and R back before the final permutation.
		preFP := append(append([]byte{}, r...), l...)
		block = permute(preFP, fpTab[:])
	}

	var out [8]byte
	for i := 0; i < 64; i++ {
		if block[i] != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

const cryptB64 = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func cryptEncode(block [8]byte) string {
	bits := make([]byte, 64)
	for i, b := range block {
		for j := 0; j < 8; j++ {
			bits[i*8+j] = (b >> uint(7-j)) & 1
		}
	}
	out := make([]byte, 0, 11)
	for i := 0; i < 66; i += 6 {
		var v byte
		for j := 0; j < 6; j++ {
			idx := i + j
			var bit byte
			if idx < 64 {
				bit = bits[idx]
			}
			v = v<<1 | bit
		}
		out = append(out, cryptB64[v&0x3f])
	}
	return string(out[:11])
}

// unixCrypt implements traditional crypt(3): a 2-character salt (each
// character drawn from cryptB64) and a password truncated to its first 8
// characters with the high bit of each byte cleared, folded into a 56-bit
// DES key.
func unixCrypt(password string, salt [2]byte) string {
	var key [8]byte
	for i := 0; i < 8 && i < len(password); i++ {
		key[i] = password[i] << 1
	}
	saltVal := uint32(cryptSaltValue(salt[0])) | uint32(cryptSaltValue(salt[1]))<<6
	block := desCryptBlock(key, saltVal)
	return string(salt[:]) + cryptEncode(block)
}

func cryptSaltValue(c byte) byte {
	switch {
	case c >= '.' && c <= '9':
		return c - '.'
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 12
	case c >= 'a' && c <= 'z':
		return c - 'a' + 38
	default:
		return 0
	}
}
