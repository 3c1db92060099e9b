package strategy

import (
	"fmt"
	"strings"
)

// Key identifies one of the built-in signal generators. The set is closed:
// adding a strategy means adding a constant here and an arm in deriveLines.
type Key string

const (
	KeyNone            Key = "none"
	KeyMACross         Key = "maCross"
	KeyEMATrend        Key = "emaTrend"
	KeyMACDCross       Key = "macdCross"
	KeyRSIReversion    Key = "rsiReversion"
	KeyRSIMomentum     Key = "rsiMomentum"
	KeyBollBreakout    Key = "bollBreakout"
	KeyBollReversion   Key = "bollReversion"
	KeyChannelBreakout Key = "channelBreakout"
	KeySuperTrend      Key = "supertrend"
	KeyATRBreakout     Key = "atrBreakout"
	KeyDonchian        Key = "donchian"
	KeyTurtle          Key = "turtle"
	KeyIchimoku        Key = "ichimoku"
	KeyKDJCross        Key = "kdjCross"
)

var allKeys = []Key{
	KeyMACross,
	KeyEMATrend,
	KeyMACDCross,
	KeyRSIReversion,
	KeyRSIMomentum,
	KeyBollBreakout,
	KeyBollReversion,
	KeyChannelBreakout,
	KeySuperTrend,
	KeyATRBreakout,
	KeyDonchian,
	KeyTurtle,
	KeyIchimoku,
	KeyKDJCross,
}

// AllKeys returns every strategy key except KeyNone, in a fixed order.
func AllKeys() []Key {
	out := make([]Key, len(allKeys))
	copy(out, allKeys)
	return out
}

// ParseKey resolves a strategy key case-insensitively. An empty string maps
// to KeyNone.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(KeyNone)) {
		return KeyNone, nil
	}
	for _, k := range allKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return KeyNone, fmt.Errorf("unknown strategy %q", s)
}

func (k Key) String() string {
	return string(k)
}

// Valid reports whether k is a known key, including KeyNone.
func (k Key) Valid() bool {
	if k == KeyNone {
		return true
	}
	for _, known := range allKeys {
		if k == known {
			return true
		}
	}
	return false
}

// Filterable reports whether BUY signals of this strategy pass through the
// entry filter gate. Reversion and oscillator-cross strategies buy into
// weakness and are never gated.
func (k Key) Filterable() bool {
	switch k {
	case KeyMACross, KeyEMATrend, KeyMACDCross, KeyRSIMomentum, KeyBollBreakout,
		KeyChannelBreakout, KeySuperTrend, KeyATRBreakout, KeyDonchian, KeyIchimoku:
		return true
	default:
		return false
	}
}

// Family groups strategies by the kind of market they expect.
type Family int

const (
	FamilyTrend Family = iota
	FamilyBreakout
	FamilyReversion
	FamilyOscillator
)

func (f Family) String() string {
	switch f {
	case FamilyTrend:
		return "trend"
	case FamilyBreakout:
		return "breakout"
	case FamilyReversion:
		return "reversion"
	case FamilyOscillator:
		return "oscillator"
	default:
		return "unknown"
	}
}

// Family returns the strategy family of k.
func (k Key) Family() Family {
	switch k {
	case KeyMACross, KeyEMATrend, KeyMACDCross, KeySuperTrend, KeyIchimoku:
		return FamilyTrend
	case KeyBollBreakout, KeyChannelBreakout, KeyATRBreakout, KeyDonchian, KeyTurtle:
		return FamilyBreakout
	case KeyRSIReversion, KeyBollReversion:
		return FamilyReversion
	default:
		return FamilyOscillator
	}
}
