// Package ternary converts between integers and the 27-character tryte
// alphabet IOTA addresses and tags are expressed in, and computes address
// checksums.
//
// The original implementation's trit/checksum routines were not part of
// the retrieved source and no ternary or ternary-hash library exists
// anywhere in the dependency corpus this repository draws from, so both
// routines here are a from-scratch, explicitly non-cryptographic stand-in:
// Checksum is an additive digest, not the Kerl/Keccak-based checksum real
// IOTA nodes compute. It is sufficient to give every Address a stable,
// write-once checksum column as §3 requires, but must not be read as
// validating anything about the address's authenticity — signature and
// consensus validation are explicit non-goals.
package ternary

import (
	"strings"

	"github.com/tangle-rdb/ingester/internal/errs"
)

// alphabet is the standard 27-character tryte alphabet: '9' is zero, then
// A-Z for values 1-26.
const alphabet = "9ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const checksumLength = 9

// TritsString encodes n in base-27 using alphabet, least-significant tryte
// first, right-padded with the zero tryte ('9') to exactly length
// characters, matching
// the source's trits_string(value, TAG_LENGTH) used to turn
// --milestone-start-index into a comparable tag string.
func TritsString(n int, length int) (string, error) {
	if n < 0 {
		return "", errs.ErrChecksum
	}
	var b strings.Builder
	if n == 0 {
		b.WriteByte(alphabet[0])
	}
	for n > 0 {
		b.WriteByte(alphabet[n%27])
		n /= 27
	}
	out := b.String()
	if len(out) > length {
		return "", errs.ErrChecksum
	}
	if pad := length - len(out); pad > 0 {
		out += strings.Repeat("9", pad)
	}
	return out, nil
}

// Checksum computes a stable, non-cryptographic checksumLength-character
// digest of address. Deterministic and collision-resistant enough for a
// display checksum; not a substitute for Kerl.
func Checksum(address string) (string, error) {
	if address == "" {
		return "", errs.ErrChecksum
	}
	index := make(map[byte]int, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		index[alphabet[i]] = i
	}

	acc := 0
	for i := 0; i < len(address); i++ {
		v, ok := index[address[i]]
		if !ok {
			return "", errs.ErrChecksum
		}
		// 27^9: one value per output tryte. The multiplier 31 is coprime to
		// 27, so earlier trytes are never shifted out of the accumulator.
		acc = (acc*31 + v + i) % 7625597484987
	}

	var b strings.Builder
	for i := 0; i < checksumLength; i++ {
		b.WriteByte(alphabet[acc%27])
		acc /= 27
	}
	return b.String(), nil
}
