// Package half packs float32 values into IEEE 754 binary16 storage and
// encodes integer ids as half-precision values that survive interpolation.
//
// The per-pixel coverage and clip planes store two halves per 32-bit word,
// matching packHalf2x16/unpackHalf2x16.
package half

import "github.com/x448/float16"

// MaxDenormF16 is the largest denormal half bit pattern. Ids are offset by
// it so that every encoded id is a normal number.
const MaxDenormF16 = 1023

// infBits is the bit pattern of +Inf; encoded ids must stay below it.
const infBits = 0x7c00

// Round quantizes f to the nearest half-precision value.
func Round(f float32) float32 {
	return float16.Fromfloat32(f).Float32()
}

// Pack2x16 packs two floats as halves, a in the low 16 bits.
func Pack2x16(a, b float32) uint32 {
	return uint32(float16.Fromfloat32(a).Bits()) | uint32(float16.Fromfloat32(b).Bits())<<16
}

// Unpack2x16 is the inverse of Pack2x16.
func Unpack2x16(u uint32) (a, b float32) {
	a = float16.Frombits(uint16(u)).Float32()
	b = float16.Frombits(uint16(u >> 16)).Float32()
	return a, b
}

// FromBits returns the value of a raw half bit pattern.
func FromBits(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}

// Bits returns the half bit pattern nearest to f.
func Bits(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// IDToF16 encodes an integer id as a half whose bit pattern is
// (id + MaxDenormF16) * granularity. Id 0 encodes as 0.
//
// Distinct ids land at least granularity ulps apart, so hardware (or
// simulated) interpolation of a constant id never produces a neighbor.
func IDToF16(id uint32, granularity uint32) float32 {
	if id == 0 {
		return 0
	}
	return FromBits(uint16((id + MaxDenormF16) * granularity))
}

// F16ToID decodes a value produced by IDToF16. The sign is ignored so that
// even-odd (negated) ids decode to the same path.
func F16ToID(v float32, granularity uint32) uint32 {
	if v == 0 || granularity == 0 {
		return 0
	}
	bits := uint32(Bits(v)) & 0x7fff
	return bits/granularity - MaxDenormF16
}

// MaxID returns the exclusive upper bound of ids that round trip through
// IDToF16 for the given granularity.
func MaxID(granularity uint32) uint32 {
	if granularity == 0 {
		return 0
	}
	n := (infBits-1)/granularity + 1 // smallest n with n*g >= infBits
	if n <= MaxDenormF16 {
		return 0
	}
	return n - MaxDenormF16
}
