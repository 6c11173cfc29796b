package mutation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bnema/outputctl/internal/display"
)

// Kind is the field a mutation changes
type Kind int

const (
	KindPrimary Kind = iota
	KindEnable
	KindMode
	KindPosition
	KindScale
	KindRotation
	KindOverscan
	KindVrrPolicy
	KindRgbRange
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindEnable:
		return "enable"
	case KindMode:
		return "mode"
	case KindPosition:
		return "position"
	case KindScale:
		return "scale"
	case KindRotation:
		return "rotation"
	case KindOverscan:
		return "overscan"
	case KindVrrPolicy:
		return "vrrpolicy"
	case KindRgbRange:
		return "rgbrange"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// notFoundCode is the exit code used when the resolved id matches no output
func (k Kind) notFoundCode() int {
	switch k {
	case KindPrimary, KindPosition:
		return ExitFailure
	case KindEnable:
		return ExitEnableNotFound
	default:
		return ExitInvalidValue
	}
}

// Mutation is one parsed specifier. Arg holds the raw argument until
// ParseArg fills the payload field matching Kind.
type Mutation struct {
	Kind Kind
	Ref  string // output name or id, unresolved
	Spec string
	Arg  string

	Enable    bool
	ModeRef   string
	Position  display.Position
	Scale     float64
	Rotation  display.Rotation
	Overscan  uint32
	VrrPolicy display.VrrPolicy
	RgbRange  display.RgbRange

	mode *display.Mode // bound by Validate
}

const maxOverscan = 100

// Parse reads the structure of one output.<ref>.<action>[.<args>] specifier:
// the prefix, the action and its argument count. The argument itself is read
// by ParseArg once the reference has resolved.
func Parse(spec string) (Mutation, error) {
	ops := strings.Split(spec, ".")
	if len(ops) < 3 || ops[0] != "output" {
		return Mutation{}, newError(ParseError, ExitBadSpecifier, spec, "",
			"expected output.<ref>.<action>[.<args>]")
	}

	m := Mutation{Ref: ops[1], Spec: spec}
	action, args := ops[2], ops[3:]
	if len(args) == 1 {
		m.Arg = args[0]
	}

	wantArgs := func(n int) error {
		if len(args) != n {
			return newError(ParseError, ExitBadSpecifier, spec, action,
				"%s takes %d argument(s), got %d", action, n, len(args))
		}
		return nil
	}

	switch action {
	case "primary":
		m.Kind = KindPrimary
		return m, wantArgs(0)

	case "enable", "disable":
		m.Kind = KindEnable
		m.Enable = action == "enable"
		return m, wantArgs(0)

	case "mode":
		m.Kind = KindMode
		return m, wantArgs(1)

	case "position":
		m.Kind = KindPosition
		return m, wantArgs(1)

	case "scale":
		m.Kind = KindScale
		if len(args) != 1 && len(args) != 2 {
			return m, newError(ParseError, ExitBadSpecifier, spec, action,
				"scale takes 1 or 2 argument(s), got %d", len(args))
		}
		m.Arg = strings.Join(args, ".")
		return m, nil

	case "orientation", "rotation":
		m.Kind = KindRotation
		return m, wantArgs(1)

	case "overscan":
		m.Kind = KindOverscan
		return m, wantArgs(1)

	case "vrrpolicy":
		m.Kind = KindVrrPolicy
		return m, wantArgs(1)

	case "rgbrange":
		m.Kind = KindRgbRange
		return m, wantArgs(1)
	}

	return Mutation{}, newError(ParseError, ExitBadSpecifier, spec, action, "unknown action %q", action)
}

// ParseArg checks the argument's syntax and domain and stores it in the
// payload field. A bad position gives 5, any other bad value 9.
func ParseArg(m *Mutation) error {
	invalid := func(err error) error {
		return newError(ValidateError, ExitInvalidValue, m.Spec, m.Arg, "%v", err)
	}

	switch m.Kind {
	case KindMode:
		m.ModeRef = m.Arg

	case KindPosition:
		pos, err := parsePosition(m.Arg)
		if err != nil {
			return newError(ValidateError, ExitBadPosition, m.Spec, m.Arg, "%v", err)
		}
		m.Position = pos

	case KindScale:
		scale, err := parseScale(m.Arg)
		if err != nil {
			return invalid(err)
		}
		m.Scale = scale

	case KindRotation:
		r, err := display.ParseRotation(m.Arg)
		if err != nil {
			return invalid(err)
		}
		m.Rotation = r

	case KindOverscan:
		n, err := strconv.Atoi(m.Arg)
		if err != nil || n < 0 || n > maxOverscan {
			return invalid(fmt.Errorf("overscan must be an integer between 0 and %d", maxOverscan))
		}
		m.Overscan = uint32(n)

	case KindVrrPolicy:
		p, err := display.ParseVrrPolicy(m.Arg)
		if err != nil {
			return invalid(err)
		}
		m.VrrPolicy = p

	case KindRgbRange:
		r, err := display.ParseRgbRange(m.Arg)
		if err != nil {
			return invalid(err)
		}
		m.RgbRange = r
	}
	return nil
}

func parsePosition(s string) (display.Position, error) {
	xy := strings.Split(s, ",")
	if len(xy) != 2 {
		return display.Position{}, fmt.Errorf("position must be <x>,<y>")
	}
	x, err := strconv.Atoi(xy[0])
	if err != nil {
		return display.Position{}, fmt.Errorf("invalid x coordinate %q", xy[0])
	}
	y, err := strconv.Atoi(xy[1])
	if err != nil {
		return display.Position{}, fmt.Errorf("invalid y coordinate %q", xy[1])
	}
	return display.Position{X: x, Y: y}, nil
}

// parseScale accepts both decimal separators, so scale.1,5 and scale.1.5
// (split into two arguments) read the same
func parseScale(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scale %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("scale must be a positive number")
	}
	return v, nil
}
