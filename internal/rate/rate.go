// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package rate defines the calculation rates of signals and the ordering
// used to combine them.
//
// The concrete rates are ordered Scalar < Control < Audio. Demand sits
// outside that order and Unknown absorbs everything it is combined with,
// so an unresolved input keeps the combined rate unresolved until a concrete
// consumer decides it.
package rate

import (
	"fmt"
	"strings"
)

// Rate is the execution-frequency domain of a signal.
type Rate int8

const (
	Unknown Rate = -1
	Scalar  Rate = 0
	Control Rate = 1
	Audio   Rate = 2
	Demand  Rate = 3
)

var names = map[Rate]string{
	Unknown: "unknown",
	Scalar:  "scalar",
	Control: "control",
	Audio:   "audio",
	Demand:  "demand",
}

// String returns the lower-case name of the rate.
func (r Rate) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	return fmt.Sprintf("rate(%d)", int8(r))
}

// Valid reports whether r is one of the declared rates.
func (r Rate) Valid() bool {
	_, ok := names[r]
	return ok
}

// Known reports whether r is a resolved rate.
func (r Rate) Known() bool {
	return r != Unknown && r.Valid()
}

// ID returns the one-byte wire id of the rate. Unknown is encoded as 0xFF.
func (r Rate) ID() byte {
	return byte(r)
}

// FromID is the inverse of ID.
func FromID(id byte) (Rate, error) {
	r := Rate(int8(id))
	if !r.Valid() {
		return Unknown, fmt.Errorf("invalid rate id %d", id)
	}
	return r, nil
}

// Parse accepts the full names as well as the short ir/kr/ar/dr forms.
func Parse(s string) (Rate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "ir":
		return Scalar, nil
	case "control", "kr":
		return Control, nil
	case "audio", "ar":
		return Audio, nil
	case "demand", "dr":
		return Demand, nil
	case "unknown", "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown rate %q", s)
}

// Compare orders two concrete rates. ok is false when either side is Unknown
// or when Demand is compared with a different rate.
func Compare(a, b Rate) (c int, ok bool) {
	if a == Unknown || b == Unknown {
		return 0, false
	}
	if a == b {
		return 0, true
	}
	if a == Demand || b == Demand {
		return 0, false
	}
	if a < b {
		return -1, true
	}
	return 1, true
}

// Max combines two rates. Unknown is absorbing and Demand dominates the
// concrete rates.
func Max(a, b Rate) Rate {
	switch {
	case a == Unknown || b == Unknown:
		return Unknown
	case a == Demand || b == Demand:
		return Demand
	case a > b:
		return a
	}
	return b
}

// MaxOf folds Max over rs. An empty list yields Scalar, the identity of Max
// over the concrete rates.
func MaxOf(rs ...Rate) Rate {
	out := Scalar
	for _, r := range rs {
		out = Max(out, r)
	}
	return out
}

// Reduce returns the common rate of rs, or Unknown if they differ or rs is
// empty.
func Reduce(rs ...Rate) Rate {
	if len(rs) == 0 {
		return Unknown
	}
	out := rs[0]
	for _, r := range rs[1:] {
		if r != out {
			return Unknown
		}
	}
	return out
}

// MethodName returns the short SuperCollider-style suffix (ir, kr, ar, dr).
func (r Rate) MethodName() string {
	switch r {
	case Scalar:
		return "ir"
	case Control:
		return "kr"
	case Audio:
		return "ar"
	case Demand:
		return "dr"
	}
	return "?"
}

// MarshalText implements encoding.TextMarshaler.
func (r Rate) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rate) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
