package param

import (
	"errors"
	"math"
	"math/bits"
	"strconv"
	"strings"
)

// Domain selects which unit suffixes a parser accepts.
type Domain int

const (
	// Duration values are nanosecond periods or holding times.
	Duration Domain = iota
	// Quantity values are byte or line quotas.
	Quantity
)

// MaxTextLen bounds the length of a candidate control string. Anything
// longer is rejected before parsing to keep per-update cost fixed.
const MaxTextLen = 40

// Parse reject codes. None of these is fatal for a live control channel;
// the caller drops the update and keeps the previous value.
var (
	ErrTooLong     = errors.New("control text too long")
	ErrMalformed   = errors.New("malformed control value")
	ErrUnknownUnit = errors.New("unknown unit suffix")
	ErrOverflow    = errors.New("value out of range")
)

// Value is the control parameter shared between a channel reader and a
// consumer loop: a nanosecond period or a byte/line quota, or one of the
// two sentinels.
type Value struct {
	Magnitude uint64
	Infinite  bool
	Terminate bool

	// Additive is set by a leading "+" and means "add to the current
	// value" instead of replacing it. Only a live control channel may
	// produce additive values.
	Additive bool
}

// Zero reports whether the value is a plain zero magnitude.
func (v Value) Zero() bool {
	return !v.Infinite && !v.Terminate && v.Magnitude == 0
}

// Equal compares two values including sentinel and additive state.
func (v Value) Equal(o Value) bool {
	return v == o
}

func (v Value) String() string {
	switch {
	case v.Terminate:
		return "terminate"
	case v.Infinite:
		return "infinite"
	case v.Additive:
		return "+" + strconv.FormatUint(v.Magnitude, 10)
	default:
		return strconv.FormatUint(v.Magnitude, 10)
	}
}

// Parse validates a candidate control string from a live channel and
// returns its Value. Results that exceed the domain maximum saturate to
// the maximum instead of failing, because a live writer cannot be asked
// to retry.
func Parse(text string, d Domain) (Value, error) {
	return parse(text, d, true)
}

// ParseArg validates a one-shot command-line argument. Unlike Parse it
// refuses the additive "+" prefix and treats overflow as a hard error.
func ParseArg(text string, d Domain) (Value, error) {
	return parse(text, d, false)
}

func parse(text string, d Domain, live bool) (Value, error) {
	s := strings.TrimSpace(text)
	if len(s) > MaxTextLen {
		return Value{}, ErrTooLong
	}
	if s == "" {
		return Value{}, ErrMalformed
	}

	if s == "t" || s == "T" {
		return Value{Terminate: true}, nil
	}

	var v Value
	if s[0] == '+' {
		if !live {
			return Value{}, ErrMalformed
		}
		v.Additive = true
		s = s[1:]
		if s == "" {
			return Value{}, ErrMalformed
		}
	}
	if s[0] == '-' {
		return Value{}, ErrMalformed
	}

	// "N/D" in the duration domain is a rate written as a ratio: N
	// releases per D seconds, i.e. a period of D/N seconds.
	if d == Duration {
		if i := strings.IndexByte(s, '/'); i >= 0 {
			count, cerr := strconv.ParseFloat(s[:i], 64)
			secs, serr := strconv.ParseFloat(s[i+1:], 64)
			if cerr != nil || serr != nil || count <= 0 || secs <= 0 {
				return Value{}, ErrMalformed
			}
			return saturate(v, secs*1e9/count, live)
		}
	}

	num, unit := splitNumber(s)
	if num == "" {
		return Value{}, ErrMalformed
	}

	if d == Duration && unit == "%" {
		switch num {
		case "0":
			v.Magnitude = 0
			return v, nil
		case "100":
			v.Infinite = true
			return v, nil
		}
		return Value{}, ErrMalformed
	}

	scale, invert, err := unitScale(unit, d)
	if err != nil {
		return Value{}, err
	}

	if invert {
		// Rate suffixes (bps/cps) turn a throughput into a per-unit
		// nanosecond period, so they always go through floating point.
		rate, perr := strconv.ParseFloat(num, 64)
		if perr != nil || rate <= 0 {
			return Value{}, ErrMalformed
		}
		period := float64(scale) / rate
		return saturate(v, period, live)
	}

	if isInteger(num) {
		n, perr := strconv.ParseUint(num, 10, 64)
		if perr != nil {
			if errors.Is(perr, strconv.ErrRange) {
				return saturateMax(v, live)
			}
			return Value{}, ErrMalformed
		}
		hi, lo := bits.Mul64(n, scale)
		if hi != 0 {
			return saturateMax(v, live)
		}
		v.Magnitude = lo
		return v, nil
	}

	f, perr := strconv.ParseFloat(num, 64)
	if perr != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, ErrMalformed
	}
	return saturate(v, f*float64(scale), live)
}

// splitNumber cuts s into its numeric prefix and the trailing unit
// suffix. The numeric part may contain a decimal point or exponent.
func splitNumber(s string) (num, unit string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' || c == '.' {
			i++
			continue
		}
		// Exponent part of a float: e/E followed by a digit or sign.
		if (c == 'e' || c == 'E') && i+1 < len(s) {
			next := s[i+1]
			if next >= '0' && next <= '9' || next == '+' || next == '-' {
				i += 2
				continue
			}
		}
		break
	}
	return s[:i], s[i:]
}

func isInteger(num string) bool {
	return strings.IndexAny(num, ".eE") < 0
}

// unitScale maps a suffix to a multiplier. For the rate suffixes invert
// is true and scale is the dividend in nanoseconds.
func unitScale(unit string, d Domain) (scale uint64, invert bool, err error) {
	if d == Duration {
		switch unit {
		case "", "s":
			return 1_000_000_000, false, nil
		case "ms":
			return 1_000_000, false, nil
		case "us":
			return 1_000, false, nil
		case "ns":
			return 1, false, nil
		case "bps":
			return 8_000_000_000, true, nil
		case "cps":
			return 1_000_000_000, true, nil
		}
		return 0, false, ErrUnknownUnit
	}
	switch unit {
	case "":
		return 1, false, nil
	case "k":
		return 1_000, false, nil
	case "M":
		return 1_000_000, false, nil
	case "G":
		return 1_000_000_000, false, nil
	case "T":
		return 1_000_000_000_000, false, nil
	case "P":
		return 1_000_000_000_000_000, false, nil
	case "E":
		return 1_000_000_000_000_000_000, false, nil
	case "K", "ki":
		return 1 << 10, false, nil
	case "Mi":
		return 1 << 20, false, nil
	case "Gi":
		return 1 << 30, false, nil
	case "Ti":
		return 1 << 40, false, nil
	case "Pi":
		return 1 << 50, false, nil
	case "Ei":
		return 1 << 60, false, nil
	}
	return 0, false, ErrUnknownUnit
}

func saturate(v Value, f float64, live bool) (Value, error) {
	if f >= float64(math.MaxUint64) {
		return saturateMax(v, live)
	}
	// Round, don't truncate: 1.24 is not exact in binary and 1.24ms must
	// come out as 1240000ns, not 1239999.
	v.Magnitude = uint64(math.Round(f))
	return v, nil
}

func saturateMax(v Value, live bool) (Value, error) {
	if !live {
		return Value{}, ErrOverflow
	}
	v.Magnitude = math.MaxUint64
	return v, nil
}
