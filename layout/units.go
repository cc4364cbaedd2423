package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths used by the
// worksheet layout (box sizes, margins, paddings).

// Unit represents the original unit of a length value as written by the user.
type Unit int

const (
	UnitNone Unit = iota // bare numbers
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
)

// Conversion constants between pt and mm used for typography (font faces).
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Conversion constants used for box geometry. BoxPtToMm is deliberately the
// coarse 0.352 so that box sizes stay identical to earlier worksheets.
const (
	InToMm    = 25.4
	BoxPtToMm = 0.352
)

// InchesToMM converts inches to millimeters.
func InchesToMM(in float64) float64 { return in * InToMm }

// PointsToMM converts points to millimeters for box geometry.
func PointsToMM(pt float64) float64 { return pt * BoxPtToMm }

// RoundUp rounds n up to the next multiple of size. size must be a power of
// two.
func RoundUp(n, size int) int { return (n + size - 1) &^ (size - 1) }

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// To converts this length to target unit. Supported targets: UnitMM, UnitPT.
// A bare number is returned unchanged so callers can apply their own default unit.
func (l Length) To(target Unit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = InchesToMM(l.Value)
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		return l.Value * PtToMm
	default:
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a length string such as "54pt", "1in" or "2.5mm"
// preserving its unit. ok is false when the number cannot be parsed.
func ParseRawLengthStr(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// lengthMM parses value as a length in mm; bare numbers are taken as def.
func lengthMM(value string, def Unit) (float64, bool) {
	l, ok := ParseRawLengthStr(value)
	if !ok {
		return 0, false
	}
	if l.Unit == UnitNone {
		l.Unit = def
	}
	return l.ToMM(), true
}

// lengthPT parses value as a length in pt; bare numbers are points.
func lengthPT(value string) (float64, bool) {
	l, ok := ParseRawLengthStr(value)
	if !ok {
		return 0, false
	}
	if l.Unit == UnitNone {
		l.Unit = UnitPT
	}
	return l.ToPT(), true
}
