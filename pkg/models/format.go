package models

import (
	"fmt"
	"strings"
)

// Format is a closed set of deck construction rulesets. Values outside the
// declared constants cannot be produced by ParseFormat or by JSON/TOML
// decoding.
type Format uint8

const (
	Standard Format = iota
	Modern
	Commander
	Legacy
	Vintage
	Pauper
)

var formatNames = [...]string{
	Standard:  "standard",
	Modern:    "modern",
	Commander: "commander",
	Legacy:    "legacy",
	Vintage:   "vintage",
	Pauper:    "pauper",
}

// Formats lists every format in declaration order.
func Formats() []Format {
	return []Format{Standard, Modern, Commander, Legacy, Vintage, Pauper}
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range formatNames {
		if name == s {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

func (f Format) Valid() bool {
	return int(f) < len(formatNames)
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("format(%d)", uint8(f))
	}
	return formatNames[f]
}

func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid format %d", uint8(f))
	}
	return []byte(formatNames[f]), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
