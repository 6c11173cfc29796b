package display

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bnema/outputctl/internal/logger"
)

const broadcastRGBProperty = "Broadcast RGB"

var broadcastRGBValues = map[RgbRange]string{
	RgbRangeAutomatic: "Automatic",
	RgbRangeFull:      "Full",
	RgbRangeLimited:   "Limited 16:235",
}

// randrOutput remembers what the X server reported for one output, so Apply
// only touches what changed
type randrOutput struct {
	id      randr.Output
	crtc    randr.Crtc
	crtcs   []randr.Crtc
	initial Output
}

// randrBackend drives X11 outputs through the RandR extension
type randrBackend struct {
	conn *xgb.Conn
	root xproto.Window

	configTimestamp xproto.Timestamp
	screenWidth     int
	screenHeight    int

	outputs      map[int]*randrOutput
	crtcsInUse   map[randr.Crtc]bool
	broadcastRGB xproto.Atom
}

func newRandrBackend() (Backend, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, fmt.Errorf("DISPLAY is not set")
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("RandR extension not available: %w", err)
	}

	return &randrBackend{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
	}, nil
}

func (r *randrBackend) Name() string {
	return "randr"
}

func (r *randrBackend) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resources, err := randr.GetScreenResources(r.conn, r.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	r.configTimestamp = resources.ConfigTimestamp

	geom, err := xproto.GetGeometry(r.conn, xproto.Drawable(r.root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	r.screenWidth, r.screenHeight = int(geom.Width), int(geom.Height)

	modes := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	modeNames := make(map[randr.Mode]string, len(resources.Modes))
	offset := 0
	for _, m := range resources.Modes {
		id := randr.Mode(m.Id)
		modes[id] = m
		end := offset + int(m.NameLen)
		if end <= len(resources.Names) {
			modeNames[id] = string(resources.Names[offset:end])
		}
		offset = end
	}

	primary, err := randr.GetOutputPrimary(r.conn, r.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get primary output: %w", err)
	}

	r.broadcastRGB = r.internAtom(broadcastRGBProperty)
	r.outputs = make(map[int]*randrOutput, len(resources.Outputs))
	r.crtcsInUse = make(map[randr.Crtc]bool)

	outputs := make([]*Output, 0, len(resources.Outputs))
	for _, id := range resources.Outputs {
		info, err := randr.GetOutputInfo(r.conn, id, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output %d: %w", id, err)
		}

		o := &Output{
			ID:        int(id),
			Name:      string(info.Name),
			Connected: info.Connection == randr.ConnectionConnected,
			Primary:   primary.Output == id,
			Scale:     1.0,
		}

		for i, mid := range info.Modes {
			mi, ok := modes[mid]
			if !ok {
				continue
			}
			mode := &Mode{
				ID:          strconv.FormatUint(uint64(mid), 10),
				Name:        modeNames[mid],
				Size:        Size{Width: int(mi.Width), Height: int(mi.Height)},
				RefreshRate: refreshRate(mi),
			}
			o.Modes = append(o.Modes, mode)
			if i < int(info.NumPreferred) && o.PreferredModeID == "" {
				o.PreferredModeID = mode.ID
			}
		}

		if info.Crtc != 0 {
			crtc, err := randr.GetCrtcInfo(r.conn, info.Crtc, resources.ConfigTimestamp).Reply()
			if err != nil {
				return nil, fmt.Errorf("failed to get crtc for output %s: %w", o.Name, err)
			}
			if crtc.Mode != 0 {
				o.Enabled = true
				o.Position = Position{X: int(crtc.X), Y: int(crtc.Y)}
				o.Size = Size{Width: int(crtc.Width), Height: int(crtc.Height)}
				o.CurrentModeID = strconv.FormatUint(uint64(crtc.Mode), 10)
				o.Rotation = rotationFromRandr(crtc.Rotation)
				r.crtcsInUse[info.Crtc] = true
			}
		}

		if rgb, ok := r.readBroadcastRGB(id); ok {
			o.Capabilities |= CapabilityRgbRange
			o.RgbRange = rgb
		}

		r.outputs[o.ID] = &randrOutput{
			id:      id,
			crtc:    info.Crtc,
			crtcs:   info.Crtcs,
			initial: *o,
		}
		outputs = append(outputs, o)
	}

	logger.Debugf("randr: fetched %d output(s), screen %dx%d", len(outputs), r.screenWidth, r.screenHeight)
	return NewSnapshot(outputs), nil
}

func (r *randrBackend) Apply(ctx context.Context, s *Snapshot) error {
	if r.outputs == nil {
		return fmt.Errorf("randr: Apply called before Fetch")
	}

	// Disable first so their CRTCs become free for the rest
	for _, o := range s.Outputs {
		ro := r.outputs[o.ID]
		if ro == nil || o.Enabled || !ro.initial.Enabled {
			continue
		}
		if err := r.setCrtc(ro.crtc, 0, 0, 0, randr.RotationRotate0, nil); err != nil {
			return fmt.Errorf("failed to disable %s: %w", o.Name, err)
		}
		delete(r.crtcsInUse, ro.crtc)
		logger.Debugf("randr: disabled %s", o.Name)
	}

	if err := r.growScreen(s); err != nil {
		return err
	}

	for _, o := range s.Outputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		ro := r.outputs[o.ID]
		if ro == nil || !o.Enabled {
			continue
		}
		if err := r.configureOutput(ro, o); err != nil {
			return err
		}
	}

	if err := r.applyPrimary(s); err != nil {
		return err
	}

	for _, o := range s.Outputs {
		ro := r.outputs[o.ID]
		if ro == nil {
			continue
		}
		if o.RgbRange != ro.initial.RgbRange {
			if err := r.writeBroadcastRGB(ro.id, o.RgbRange); err != nil {
				return fmt.Errorf("failed to set rgb range on %s: %w", o.Name, err)
			}
		}
		if o.Scale != ro.initial.Scale {
			logger.Warnf("randr: scale is not supported, ignoring scale %.2f for %s", o.Scale, o.Name)
		}
		if o.Overscan != ro.initial.Overscan {
			logger.Warnf("randr: overscan is not supported, ignoring overscan %d for %s", o.Overscan, o.Name)
		}
		if o.VrrPolicy != ro.initial.VrrPolicy {
			logger.Warnf("randr: vrr policy is not supported, ignoring %s for %s", o.VrrPolicy, o.Name)
		}
	}

	return nil
}

func (r *randrBackend) configureOutput(ro *randrOutput, o *Output) error {
	modeID := o.CurrentModeID
	if modeID == "" {
		modeID = o.PreferredModeID
	}
	if modeID == "" && len(o.Modes) > 0 {
		modeID = o.Modes[0].ID
	}
	mode, err := strconv.ParseUint(modeID, 10, 32)
	if err != nil {
		return fmt.Errorf("output %s has no usable mode", o.Name)
	}

	prev := ro.initial
	if prev.Enabled && prev.Position == o.Position && prev.CurrentModeID == modeID && prev.Rotation == o.Rotation {
		return nil
	}

	crtc := ro.crtc
	if !prev.Enabled || crtc == 0 {
		crtc = r.freeCrtc(ro.crtcs)
		if crtc == 0 {
			return fmt.Errorf("no free crtc for %s", o.Name)
		}
	}

	err = r.setCrtc(crtc, o.Position.X, o.Position.Y, randr.Mode(mode), rotationToRandr(o.Rotation), []randr.Output{ro.id})
	if err != nil {
		return fmt.Errorf("failed to configure %s: %w", o.Name, err)
	}
	r.crtcsInUse[crtc] = true
	ro.crtc = crtc

	logger.Debugf("randr: %s mode %s at %d,%d rotation %s", o.Name, modeID, o.Position.X, o.Position.Y, o.Rotation)
	return nil
}

func (r *randrBackend) setCrtc(crtc randr.Crtc, x, y int, mode randr.Mode, rotation uint16, outputs []randr.Output) error {
	reply, err := randr.SetCrtcConfig(r.conn, crtc, xproto.TimeCurrentTime, r.configTimestamp,
		int16(x), int16(y), mode, rotation, outputs).Reply()
	if err != nil {
		return err
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("SetCrtcConfig returned status %d", reply.Status)
	}
	return nil
}

func (r *randrBackend) freeCrtc(candidates []randr.Crtc) randr.Crtc {
	for _, c := range candidates {
		if !r.crtcsInUse[c] {
			return c
		}
	}
	return 0
}

// growScreen enlarges the X screen when the new layout does not fit
func (r *randrBackend) growScreen(s *Snapshot) error {
	width, height := r.screenWidth, r.screenHeight
	for _, o := range s.Outputs {
		if !o.Enabled {
			continue
		}
		w, h := o.Size.Width, o.Size.Height
		if m := o.CurrentMode(); m != nil {
			w, h = m.Size.Width, m.Size.Height
			if o.Rotation == RotationLeft || o.Rotation == RotationRight {
				w, h = h, w
			}
		}
		width = max(width, o.Position.X+w)
		height = max(height, o.Position.Y+h)
	}
	if width == r.screenWidth && height == r.screenHeight {
		return nil
	}

	// 96 DPI
	mmWidth := uint32(float64(width) * 25.4 / 96)
	mmHeight := uint32(float64(height) * 25.4 / 96)
	if err := randr.SetScreenSizeChecked(r.conn, r.root, uint16(width), uint16(height), mmWidth, mmHeight).Check(); err != nil {
		return fmt.Errorf("failed to resize screen to %dx%d: %w", width, height, err)
	}
	r.screenWidth, r.screenHeight = width, height
	logger.Debugf("randr: screen resized to %dx%d", width, height)
	return nil
}

func (r *randrBackend) applyPrimary(s *Snapshot) error {
	var want randr.Output
	if p := s.Primary(); p != nil {
		if ro := r.outputs[p.ID]; ro != nil {
			want = ro.id
		}
	}

	changed := false
	for _, o := range s.Outputs {
		if ro := r.outputs[o.ID]; ro != nil && ro.initial.Primary != o.Primary {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	if err := randr.SetOutputPrimaryChecked(r.conn, r.root, want).Check(); err != nil {
		return fmt.Errorf("failed to set primary output: %w", err)
	}
	return nil
}

func (r *randrBackend) internAtom(name string) xproto.Atom {
	reply, err := xproto.InternAtom(r.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone
	}
	return reply.Atom
}

func (r *randrBackend) readBroadcastRGB(id randr.Output) (RgbRange, bool) {
	if r.broadcastRGB == xproto.AtomNone {
		return RgbRangeAutomatic, false
	}

	prop, err := randr.GetOutputProperty(r.conn, id, r.broadcastRGB, xproto.AtomAtom, 0, 1, false, false).Reply()
	if err != nil || prop.Format != 32 || len(prop.Data) < 4 {
		return RgbRangeAutomatic, false
	}

	name, err := xproto.GetAtomName(r.conn, xproto.Atom(xgb.Get32(prop.Data))).Reply()
	if err != nil {
		return RgbRangeAutomatic, false
	}
	for rng, value := range broadcastRGBValues {
		if value == name.Name {
			return rng, true
		}
	}
	return RgbRangeAutomatic, true
}

func (r *randrBackend) writeBroadcastRGB(id randr.Output, rng RgbRange) error {
	if r.broadcastRGB == xproto.AtomNone {
		return fmt.Errorf("driver has no %q property", broadcastRGBProperty)
	}
	value := r.internAtom(broadcastRGBValues[rng])
	if value == xproto.AtomNone {
		return fmt.Errorf("driver does not know %q", broadcastRGBValues[rng])
	}

	data := make([]byte, 4)
	xgb.Put32(data, uint32(value))
	return randr.ChangeOutputPropertyChecked(r.conn, id, r.broadcastRGB, xproto.AtomAtom,
		32, xproto.PropModeReplace, 1, data).Check()
}

func (r *randrBackend) Close() error {
	if r.conn != nil {
		r.conn.Close()
	}
	return nil
}

func refreshRate(m randr.ModeInfo) float64 {
	if m.Htotal == 0 || m.Vtotal == 0 {
		return 0
	}
	return float64(m.DotClock) / (float64(m.Htotal) * float64(m.Vtotal))
}

func rotationFromRandr(rot uint16) Rotation {
	switch {
	case rot&randr.RotationRotate90 != 0:
		return RotationLeft
	case rot&randr.RotationRotate180 != 0:
		return RotationInverted
	case rot&randr.RotationRotate270 != 0:
		return RotationRight
	default:
		return RotationNone
	}
}

func rotationToRandr(r Rotation) uint16 {
	switch r {
	case RotationLeft:
		return randr.RotationRotate90
	case RotationInverted:
		return randr.RotationRotate180
	case RotationRight:
		return randr.RotationRotate270
	default:
		return randr.RotationRotate0
	}
}
