package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/pdincr/internal/behavior"
)

const (
	deadzone    = 0.05
	pollDelayNS = 16_000_000 // ~60Hz
)

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *DeviceMapping
	name     string
	id       sdl.JoystickID
}

// JoystickSource turns a game controller stick into a pointing sensor using
// the SDL3 Joystick API. The first connected joystick is the active one.
type JoystickSource struct {
	// OnInit, if set, runs once SDL is initialized.
	OnInit func()

	speed     float64
	logger    *slog.Logger
	joysticks map[sdl.JoystickID]*joystickInfo
	activeID  sdl.JoystickID // the first connected joystick
	hasActive bool
	lastPoll  time.Time
}

// NewJoystickSource returns a source moving speed counts per poll at full
// stick deflection.
func NewJoystickSource(speed float64, logger *slog.Logger) *JoystickSource {
	return &JoystickSource{
		speed:     speed,
		logger:    logger,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
	}
}

func (j *JoystickSource) Name() string { return "joystick" }

// Run initializes SDL and runs the event+polling loop on the current thread
// until ctx is done.
func (j *JoystickSource) Run(ctx context.Context, p Processor) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		return fmt.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()

	j.logger.Info("SDL3 Joystick subsystem initialized")
	if j.OnInit != nil {
		j.OnInit()
	}

	// Check for already-connected joysticks
	for _, id := range sdl.GetJoysticks() {
		j.openJoystick(id)
	}

	j.lastPoll = time.Now()
	for {
		select {
		case <-ctx.Done():
			j.closeAll()
			return nil
		default:
		}

		j.processEvents()
		j.poll(p)
		sdl.DelayNS(pollDelayNS)
	}
}

func (j *JoystickSource) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			j.openJoystick(event.JDevice().Which)
		case sdl.EventJoystickRemoved:
			j.removeJoystick(event.JDevice().Which)
		}
	}
}

func (j *JoystickSource) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := j.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		j.logger.Warn("Failed to open joystick", "id", instanceID, "error", sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	name := sdl.GetJoystickName(js)
	mapping := GetMapping(vendorID, productID)

	j.joysticks[jsID] = &joystickInfo{
		joystick: js,
		mapping:  mapping,
		name:     name,
		id:       jsID,
	}

	j.logger.Info("Joystick connected",
		"name", name,
		"vid", fmt.Sprintf("%04X", vendorID),
		"pid", fmt.Sprintf("%04X", productID),
		"mapping", mapping.Name,
		"axes", sdl.GetNumJoystickAxes(js))

	if !j.hasActive {
		j.activeID = jsID
		j.hasActive = true
		j.logger.Info("Active joystick set", "name", name, "id", jsID)
	}
}

func (j *JoystickSource) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := j.joysticks[instanceID]
	if !exists {
		return
	}

	j.logger.Info("Joystick disconnected", "name", info.name)
	sdl.CloseJoystick(info.joystick)
	delete(j.joysticks, instanceID)

	if !j.hasActive || j.activeID != instanceID {
		return
	}
	j.hasActive = false
	// Promote the next available joystick
	for id, js := range j.joysticks {
		if sdl.JoystickConnected(js.joystick) {
			j.activeID = id
			j.hasActive = true
			j.logger.Info("Active joystick switched", "name", js.name, "id", id)
			break
		}
	}
}

func (j *JoystickSource) closeAll() {
	for id, info := range j.joysticks {
		sdl.CloseJoystick(info.joystick)
		delete(j.joysticks, id)
	}
}

// poll reads the pointer stick once and delivers a sample when it moved.
func (j *JoystickSource) poll(p Processor) {
	now := time.Now()
	dt := int(now.Sub(j.lastPoll) / time.Millisecond)
	j.lastPoll = now

	if !j.hasActive {
		return
	}
	info, exists := j.joysticks[j.activeID]
	if !exists || !sdl.JoystickConnected(info.joystick) {
		return
	}

	m := info.mapping
	dx, dy := StickDelta(
		sdl.GetJoystickAxis(info.joystick, m.X.Index),
		sdl.GetJoystickAxis(info.joystick, m.Y.Index),
		m, j.speed)
	if dx == 0 && dy == 0 {
		return
	}

	s := behavior.Sample{DX: dx, DY: dy, DT: dt, Timestamp: now.UnixMilli()}
	if err := p.Process(s); err != nil {
		j.logger.Debug("Sample rejected", "dx", dx, "dy", dy, "error", err)
	}
}
