package display

import (
	"fmt"
	"strings"
)

// Rotation of an output's content
type Rotation int

const (
	RotationNone Rotation = iota
	RotationLeft
	RotationRight
	RotationInverted
)

var rotationWords = map[string]Rotation{
	"none":     RotationNone,
	"normal":   RotationNone,
	"left":     RotationLeft,
	"right":    RotationRight,
	"inverted": RotationInverted,
}

// ParseRotation matches s case-insensitively against the known rotation words
func ParseRotation(s string) (Rotation, error) {
	r, ok := rotationWords[strings.ToLower(s)]
	if !ok {
		return RotationNone, fmt.Errorf("unknown rotation %q (allowed: none, normal, left, right, inverted)", s)
	}
	return r, nil
}

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "none"
	case RotationLeft:
		return "left"
	case RotationRight:
		return "right"
	case RotationInverted:
		return "inverted"
	default:
		return fmt.Sprintf("rotation(%d)", int(r))
	}
}

func (r Rotation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rotation) UnmarshalText(text []byte) error {
	v, err := ParseRotation(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// VrrPolicy controls variable refresh rate
type VrrPolicy int

const (
	VrrNever VrrPolicy = iota
	VrrAlways
	VrrAutomatic
)

// ParseVrrPolicy matches s case-insensitively against never, always, automatic
func ParseVrrPolicy(s string) (VrrPolicy, error) {
	switch strings.ToLower(s) {
	case "never":
		return VrrNever, nil
	case "always":
		return VrrAlways, nil
	case "automatic":
		return VrrAutomatic, nil
	}
	return VrrNever, fmt.Errorf("unknown vrr policy %q (allowed: never, always, automatic)", s)
}

func (p VrrPolicy) String() string {
	switch p {
	case VrrNever:
		return "never"
	case VrrAlways:
		return "always"
	case VrrAutomatic:
		return "automatic"
	default:
		return fmt.Sprintf("vrrpolicy(%d)", int(p))
	}
}

func (p VrrPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *VrrPolicy) UnmarshalText(text []byte) error {
	v, err := ParseVrrPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// RgbRange is the quantization range sent to the sink
type RgbRange int

const (
	RgbRangeAutomatic RgbRange = iota
	RgbRangeFull
	RgbRangeLimited
)

// ParseRgbRange matches s case-insensitively against automatic, full, limited
func ParseRgbRange(s string) (RgbRange, error) {
	switch strings.ToLower(s) {
	case "automatic":
		return RgbRangeAutomatic, nil
	case "full":
		return RgbRangeFull, nil
	case "limited":
		return RgbRangeLimited, nil
	}
	return RgbRangeAutomatic, fmt.Errorf("unknown rgb range %q (allowed: automatic, full, limited)", s)
}

func (r RgbRange) String() string {
	switch r {
	case RgbRangeAutomatic:
		return "automatic"
	case RgbRangeFull:
		return "full"
	case RgbRangeLimited:
		return "limited"
	default:
		return fmt.Sprintf("rgbrange(%d)", int(r))
	}
}

func (r RgbRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RgbRange) UnmarshalText(text []byte) error {
	v, err := ParseRgbRange(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
