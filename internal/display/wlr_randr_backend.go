package display

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bnema/outputctl/internal/logger"
)

// wlrRandrBackend drives wlroots compositors through the wlr-randr tool
type wlrRandrBackend struct {
	run func(ctx context.Context, args ...string) ([]byte, error)

	fetched *Snapshot
}

func newWlrRandrBackend() (Backend, error) {
	if os.Getenv("WAYLAND_DISPLAY") == "" && os.Getenv("SUDO_USER") == "" {
		return nil, fmt.Errorf("WAYLAND_DISPLAY is not set")
	}
	if _, err := exec.LookPath("wlr-randr"); err != nil {
		return nil, fmt.Errorf("wlr-randr not found. Please install wlr-randr: https://gitlab.freedesktop.org/emersion/wlr-randr")
	}

	return &wlrRandrBackend{run: runWlrRandr}, nil
}

func runWlrRandr(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "wlr-randr", args...)
	cmd.Env = wlrRandrEnv()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("wlr-randr %s: %w: %s", strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("wlr-randr %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// wlrRandrEnv points wlr-randr at the invoking user's compositor when running
// under sudo
func wlrRandrEnv() []string {
	env := os.Environ()

	sudoUser := os.Getenv("SUDO_USER")
	if sudoUser == "" || os.Geteuid() != 0 {
		return env
	}
	logger.Debugf("Running wlr-randr with sudo, SUDO_USER=%s", sudoUser)

	sudoUID := os.Getenv("SUDO_UID")
	if sudoUID == "" {
		if out, err := exec.Command("id", "-u", sudoUser).Output(); err == nil {
			sudoUID = strings.TrimSpace(string(out))
		}
	}

	runtimeDir := fmt.Sprintf("/run/user/%s", sudoUID)
	env = append(env, "XDG_RUNTIME_DIR="+runtimeDir)

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return env
	}

	// Pick the first compositor socket
	files, err := os.ReadDir(runtimeDir)
	if err != nil {
		logger.Warnf("Could not read socket directory %s: %v", runtimeDir, err)
		return env
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "wayland-") && !strings.HasSuffix(f.Name(), ".lock") {
			logger.Debugf("Detected WAYLAND_DISPLAY=%s", f.Name())
			return append(env, "WAYLAND_DISPLAY="+f.Name())
		}
	}
	logger.Warn("Could not detect WAYLAND_DISPLAY for sudo session")
	return env
}

func (w *wlrRandrBackend) Name() string {
	return "wlr"
}

func (w *wlrRandrBackend) Fetch(ctx context.Context) (*Snapshot, error) {
	out, err := w.run(ctx, "--json")
	if err != nil {
		return nil, err
	}

	s, err := decodeWlrRandr(out)
	if err != nil {
		return nil, err
	}
	w.fetched = s.Clone()

	logger.Debugf("wlr-randr: fetched %d output(s)", len(s.Outputs))
	return s, nil
}

func (w *wlrRandrBackend) Apply(ctx context.Context, s *Snapshot) error {
	if w.fetched == nil {
		return fmt.Errorf("wlr-randr: Apply called before Fetch")
	}

	var args []string
	for _, o := range s.Outputs {
		args = append(args, wlrRandrArgs(w.fetched.Output(o.ID), o)...)
	}
	if len(args) == 0 {
		logger.Debug("wlr-randr: no changes expressible over wlr-output-management")
		return nil
	}

	if _, err := w.run(ctx, args...); err != nil {
		return err
	}
	w.fetched = s.Clone()
	return nil
}

func (w *wlrRandrBackend) Close() error {
	return nil
}

type wlrRandrOutput struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Modes   []struct {
		Width     int     `json:"width"`
		Height    int     `json:"height"`
		Refresh   float64 `json:"refresh"`
		Preferred bool    `json:"preferred"`
		Current   bool    `json:"current"`
	} `json:"modes"`
	Position *struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"position"`
	Transform    string  `json:"transform"`
	Scale        float64 `json:"scale"`
	AdaptiveSync *bool   `json:"adaptive_sync"`
}

// decodeWlrRandr reads `wlr-randr --json`. Outputs are numbered from 1 in
// the order the compositor lists them; modes by their index.
func decodeWlrRandr(data []byte) (*Snapshot, error) {
	var raw []wlrRandrOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse wlr-randr output: %w", err)
	}

	outputs := make([]*Output, 0, len(raw))
	for i, r := range raw {
		o := &Output{
			ID:        i + 1,
			Name:      r.Name,
			Connected: true,
			Enabled:   r.Enabled,
			Scale:     r.Scale,
			Rotation:  rotationFromWlr(r.Transform),
		}
		if o.Scale <= 0 {
			o.Scale = 1.0
		}
		if r.Position != nil {
			o.Position = Position{X: r.Position.X, Y: r.Position.Y}
		}
		if r.AdaptiveSync != nil {
			o.Capabilities |= CapabilityVrr
			if *r.AdaptiveSync {
				o.VrrPolicy = VrrAlways
			}
		}

		for j, m := range r.Modes {
			mode := &Mode{
				ID:          strconv.Itoa(j),
				Size:        Size{Width: m.Width, Height: m.Height},
				RefreshRate: m.Refresh,
			}
			o.Modes = append(o.Modes, mode)
			if m.Current {
				o.CurrentModeID = mode.ID
				o.Size = mode.Size
			}
			if m.Preferred && o.PreferredModeID == "" {
				o.PreferredModeID = mode.ID
			}
		}
		outputs = append(outputs, o)
	}

	markOriginPrimary(outputs)
	return NewSnapshot(outputs), nil
}

// markOriginPrimary makes up for wlroots having no primary output: the enabled
// output at 0,0 is taken as primary, else the first enabled one
func markOriginPrimary(outputs []*Output) {
	var first *Output
	for _, o := range outputs {
		if !o.Enabled {
			continue
		}
		if o.Position == (Position{}) {
			o.Primary = true
			return
		}
		if first == nil {
			first = o
		}
	}
	if first != nil {
		first.Primary = true
	}
}

// wlrRandrArgs returns the --output arguments turning prev into next, nothing
// when they match
func wlrRandrArgs(prev, next *Output) []string {
	if prev == nil {
		return nil
	}

	var args []string
	if next.Enabled != prev.Enabled {
		if next.Enabled {
			args = append(args, "--on")
		} else {
			args = append(args, "--off")
		}
	}

	if next.Enabled {
		if next.CurrentModeID != prev.CurrentModeID {
			if m := next.CurrentMode(); m != nil {
				args = append(args, "--mode", fmt.Sprintf("%dx%d@%sHz", m.Size.Width, m.Size.Height,
					strconv.FormatFloat(m.RefreshRate, 'f', 3, 64)))
			}
		}
		if next.Position != prev.Position {
			args = append(args, "--pos", next.Position.String())
		}
		if next.Scale != prev.Scale {
			args = append(args, "--scale", strconv.FormatFloat(next.Scale, 'f', -1, 64))
		}
		if next.Rotation != prev.Rotation {
			args = append(args, "--transform", rotationToWlr(next.Rotation))
		}
		if next.VrrPolicy != prev.VrrPolicy {
			state := "enabled"
			if next.VrrPolicy == VrrNever {
				state = "disabled"
			}
			args = append(args, "--adaptive-sync", state)
		}
	}

	if next.Primary != prev.Primary && next.Primary {
		logger.Warn("wlr-randr has no primary output, ignoring", "output", next.Name)
	}
	if next.Overscan != prev.Overscan || next.RgbRange != prev.RgbRange {
		logger.Warn("overscan and rgb range are not supported by wlr-randr, ignoring", "output", next.Name)
	}

	if len(args) == 0 {
		return nil
	}
	return append([]string{"--output", next.Name}, args...)
}

// Wayland transforms are counter-clockwise
func rotationFromWlr(t string) Rotation {
	switch strings.TrimPrefix(t, "flipped-") {
	case "90":
		return RotationLeft
	case "180":
		return RotationInverted
	case "270":
		return RotationRight
	default:
		return RotationNone
	}
}

func rotationToWlr(r Rotation) string {
	switch r {
	case RotationLeft:
		return "90"
	case RotationInverted:
		return "180"
	case RotationRight:
		return "270"
	default:
		return "normal"
	}
}
