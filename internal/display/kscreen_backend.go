package display

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/bnema/outputctl/internal/logger"
	"github.com/godbus/dbus/v5"
)

const (
	kscreenService   = "org.kde.KScreen"
	kscreenPath      = dbus.ObjectPath("/backend")
	kscreenInterface = "org.kde.kscreen.Backend"
)

// KScreen wire values
const (
	kscreenRotationNone     = 1
	kscreenRotationLeft     = 2
	kscreenRotationInverted = 4
	kscreenRotationRight    = 8
)

var kscreenOutputTypes = []string{
	"Unknown", "VGA", "DVI", "DVII", "DVIA", "DVID", "HDMI", "Panel",
	"TV", "TVComposite", "TVSVideo", "TVComponent", "TVSCART", "TVC4", "DisplayPort",
}

// kscreenBackend talks to the libkscreen backend launcher on the session bus.
// The serialized config is kept so Apply can send back every key it does not
// know about untouched.
type kscreenBackend struct {
	conn *dbus.Conn
	obj  dbus.BusObject

	raw     map[string]dbus.Variant
	rawByID map[int]map[string]dbus.Variant
	order   []int
}

func newKScreenBackend(ctx context.Context) (Backend, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := ensureKScreenService(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &kscreenBackend{
		conn: conn,
		obj:  conn.Object(kscreenService, kscreenPath),
	}, nil
}

// ensureKScreenService starts the backend launcher through D-Bus activation
// when nobody owns the name yet
func ensureKScreenService(ctx context.Context, conn *dbus.Conn) error {
	var hasOwner bool
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, kscreenService).Store(&hasOwner); err != nil {
		return fmt.Errorf("failed to query %s: %w", kscreenService, err)
	}
	if hasOwner {
		return nil
	}

	logger.Debugf("kscreen: %s not running, requesting activation", kscreenService)
	var reply uint32
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.StartServiceByName", 0, kscreenService, uint32(0)).Store(&reply); err != nil {
		return fmt.Errorf("%s is not available: %w", kscreenService, err)
	}
	return nil
}

func (k *kscreenBackend) Name() string {
	return "kscreen"
}

func (k *kscreenBackend) Fetch(ctx context.Context) (*Snapshot, error) {
	var raw map[string]dbus.Variant
	if err := k.obj.CallWithContext(ctx, kscreenInterface+".getConfig", 0).Store(&raw); err != nil {
		return nil, fmt.Errorf("getConfig failed: %w", err)
	}

	s, rawByID, order, err := decodeKScreenConfig(raw)
	if err != nil {
		return nil, err
	}

	k.raw = raw
	k.rawByID = rawByID
	k.order = order

	logger.Debugf("kscreen: fetched %d output(s)", len(s.Outputs))
	return s, nil
}

func (k *kscreenBackend) Apply(ctx context.Context, s *Snapshot) error {
	if k.raw == nil {
		return fmt.Errorf("kscreen: Apply called before Fetch")
	}

	cfg := encodeKScreenConfig(k.raw, k.rawByID, k.order, s)

	var reply map[string]dbus.Variant
	if err := k.obj.CallWithContext(ctx, kscreenInterface+".setConfig", 0, cfg).Store(&reply); err != nil {
		return fmt.Errorf("setConfig failed: %w", err)
	}
	return nil
}

func (k *kscreenBackend) Close() error {
	if k.conn != nil {
		return k.conn.Close()
	}
	return nil
}

func decodeKScreenConfig(raw map[string]dbus.Variant) (*Snapshot, map[int]map[string]dbus.Variant, []int, error) {
	list, ok := asList(raw["outputs"])
	if !ok {
		return nil, nil, nil, fmt.Errorf("kscreen config has no outputs list")
	}

	rawByID := make(map[int]map[string]dbus.Variant, len(list))
	order := make([]int, 0, len(list))
	outputs := make([]*Output, 0, len(list))

	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			return nil, nil, nil, fmt.Errorf("kscreen output %d is not a map", i)
		}
		o, err := decodeKScreenOutput(m)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("kscreen output %d: %w", i, err)
		}
		rawByID[o.ID] = m
		order = append(order, o.ID)
		outputs = append(outputs, o)
	}

	return NewSnapshot(outputs), rawByID, order, nil
}

func decodeKScreenOutput(m map[string]dbus.Variant) (*Output, error) {
	id, ok := asInt(m["id"])
	if !ok {
		return nil, fmt.Errorf("missing id")
	}

	o := &Output{
		ID:    id,
		Scale: 1.0,
	}
	o.Name, _ = asString(m["name"])
	if t, ok := asInt(m["type"]); ok && t >= 0 && t < len(kscreenOutputTypes) {
		o.Type = kscreenOutputTypes[t]
	}
	o.Connected, _ = asBool(m["connected"])
	o.Enabled, _ = asBool(m["enabled"])
	if p, ok := asBool(m["primary"]); ok {
		o.Primary = p
	} else if prio, ok := asInt(m["priority"]); ok {
		o.Primary = prio == 1
	}

	if pos, ok := asMap(m["pos"]); ok {
		o.Position.X, _ = asInt(pos["x"])
		o.Position.Y, _ = asInt(pos["y"])
	}
	if size, ok := asMap(m["size"]); ok {
		o.Size.Width, _ = asInt(size["width"])
		o.Size.Height, _ = asInt(size["height"])
	}
	if scale, ok := asFloat(m["scale"]); ok && scale > 0 {
		o.Scale = scale
	}
	if rot, ok := asInt(m["rotation"]); ok {
		o.Rotation = rotationFromKScreen(rot)
	}
	if ov, ok := asInt(m["overscan"]); ok && ov >= 0 {
		o.Overscan = uint32(ov)
	}
	if v, ok := asInt(m["vrrPolicy"]); ok {
		o.VrrPolicy = VrrPolicy(v)
	}
	if v, ok := asInt(m["rgbRange"]); ok {
		o.RgbRange = RgbRange(v)
	}
	if c, ok := asInt(m["capabilities"]); ok {
		o.Capabilities = Capabilities(c)
	}
	o.CurrentModeID, _ = asString(m["currentModeId"])
	if preferred, ok := asList(m["preferredModes"]); ok && len(preferred) > 0 {
		o.PreferredModeID, _ = asString(preferred[0])
	}

	if modes, ok := asList(m["modes"]); ok {
		for _, item := range modes {
			mm, ok := asMap(item)
			if !ok {
				continue
			}
			mode := &Mode{}
			mode.ID, _ = asString(mm["id"])
			mode.Name, _ = asString(mm["name"])
			if size, ok := asMap(mm["size"]); ok {
				mode.Size.Width, _ = asInt(size["width"])
				mode.Size.Height, _ = asInt(size["height"])
			}
			mode.RefreshRate, _ = asFloat(mm["refreshRate"])
			o.Modes = append(o.Modes, mode)
		}
	}

	return o, nil
}

func encodeKScreenConfig(raw map[string]dbus.Variant, rawByID map[int]map[string]dbus.Variant, order []int, s *Snapshot) map[string]dbus.Variant {
	cfg := make(map[string]dbus.Variant, len(raw))
	for k, v := range raw {
		cfg[k] = v
	}

	priorities := kscreenPriorities(s)
	outputs := make([]dbus.Variant, 0, len(order))
	for _, id := range order {
		src := rawByID[id]
		o := s.Output(id)
		if o == nil {
			outputs = append(outputs, dbus.MakeVariant(src))
			continue
		}

		m := make(map[string]dbus.Variant, len(src))
		for k, v := range src {
			m[k] = v
		}
		m["enabled"] = dbus.MakeVariant(o.Enabled)
		if _, ok := src["priority"]; ok {
			m["priority"] = dbus.MakeVariant(priorities[o.ID])
		} else {
			m["primary"] = dbus.MakeVariant(o.Primary)
		}
		m["pos"] = dbus.MakeVariant(map[string]dbus.Variant{
			"x": dbus.MakeVariant(int32(o.Position.X)),
			"y": dbus.MakeVariant(int32(o.Position.Y)),
		})
		m["size"] = dbus.MakeVariant(map[string]dbus.Variant{
			"width":  dbus.MakeVariant(int32(o.Size.Width)),
			"height": dbus.MakeVariant(int32(o.Size.Height)),
		})
		m["scale"] = dbus.MakeVariant(o.Scale)
		m["rotation"] = dbus.MakeVariant(int32(rotationToKScreen(o.Rotation)))
		m["currentModeId"] = dbus.MakeVariant(o.CurrentModeID)
		m["overscan"] = dbus.MakeVariant(o.Overscan)
		m["vrrPolicy"] = dbus.MakeVariant(uint32(o.VrrPolicy))
		m["rgbRange"] = dbus.MakeVariant(uint32(o.RgbRange))

		outputs = append(outputs, dbus.MakeVariant(m))
	}
	cfg["outputs"] = dbus.MakeVariant(outputs)

	return cfg
}

// kscreenPriorities numbers enabled outputs from 1, primary first; disabled
// outputs get 0
func kscreenPriorities(s *Snapshot) map[int]uint32 {
	enabled := make([]*Output, 0, len(s.Outputs))
	for _, o := range s.Outputs {
		if o.Enabled {
			enabled = append(enabled, o)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Primary && !enabled[j].Primary
	})

	prio := make(map[int]uint32, len(s.Outputs))
	for _, o := range s.Outputs {
		prio[o.ID] = 0
	}
	for i, o := range enabled {
		prio[o.ID] = uint32(i + 1)
	}
	return prio
}

func rotationFromKScreen(v int) Rotation {
	switch v {
	case kscreenRotationLeft:
		return RotationLeft
	case kscreenRotationInverted:
		return RotationInverted
	case kscreenRotationRight:
		return RotationRight
	default:
		return RotationNone
	}
}

func rotationToKScreen(r Rotation) int {
	switch r {
	case RotationLeft:
		return kscreenRotationLeft
	case RotationInverted:
		return kscreenRotationInverted
	case RotationRight:
		return kscreenRotationRight
	default:
		return kscreenRotationNone
	}
}

// Variant helpers. Qt marshals QVariantMap as a{sv} and QVariantList as av,
// possibly nested inside further variants.

func unwrap(v interface{}) interface{} {
	for {
		vv, ok := v.(dbus.Variant)
		if !ok {
			return v
		}
		v = vv.Value()
	}
}

func asMap(v interface{}) (map[string]dbus.Variant, bool) {
	switch m := unwrap(v).(type) {
	case map[string]dbus.Variant:
		return m, true
	case map[string]interface{}:
		out := make(map[string]dbus.Variant, len(m))
		for k, val := range m {
			out[k] = dbus.MakeVariant(val)
		}
		return out, true
	}
	return nil, false
}

func asList(v interface{}) ([]interface{}, bool) {
	switch l := unwrap(v).(type) {
	case []interface{}:
		return l, true
	case []dbus.Variant:
		out := make([]interface{}, len(l))
		for i, val := range l {
			out[i] = val
		}
		return out, true
	case []map[string]dbus.Variant:
		out := make([]interface{}, len(l))
		for i, val := range l {
			out[i] = val
		}
		return out, true
	case []string:
		out := make([]interface{}, len(l))
		for i, val := range l {
			out[i] = val
		}
		return out, true
	}
	return nil, false
}

func asInt(v interface{}) (int, bool) {
	switch n := unwrap(v).(type) {
	case int:
		return n, true
	case int16:
		return int(n), true
	case uint16:
		return int(n), true
	case int32:
		return int(n), true
	case uint32:
		return int(n), true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case byte:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := unwrap(v).(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func asBool(v interface{}) (bool, bool) {
	b, ok := unwrap(v).(bool)
	return b, ok
}

func asString(v interface{}) (string, bool) {
	switch s := unwrap(v).(type) {
	case string:
		return s, true
	case int32, uint32, int64, uint64, int:
		n, _ := asInt(s)
		return strconv.Itoa(n), true
	}
	return "", false
}
