package main

import "github.com/charmbracelet/harmonica"

// spinAxis is one orbit angle whose velocity decays smoothly to rest.
type spinAxis struct {
	Position float64
	Velocity float64 // radians per frame
	spring   harmonica.Spring
	accel    float64 // spring state for Velocity
}

// newSpinAxis uses a critically damped spring (frequency 4, damping 1), so
// a nudge slows down without overshooting into reverse.
func newSpinAxis(fps int) spinAxis {
	return spinAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// Nudge adds to the angular velocity.
func (a *spinAxis) Nudge(dv float64) {
	a.Velocity += dv
}

// Update advances one frame.
func (a *spinAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// turntable drives the preview camera: free yaw and pitch that coast after
// key presses, plus an optional constant spin.
type turntable struct {
	Yaw, Pitch spinAxis
	Auto       float64 // radians per frame added to yaw
	fps        int
}

func newTurntable(fps int) *turntable {
	return &turntable{
		Yaw:   newSpinAxis(fps),
		Pitch: newSpinAxis(fps),
		Auto:  autoSpin(fps),
		fps:   fps,
	}
}

// autoSpin is a quarter turn every two seconds.
func autoSpin(fps int) float64 {
	return 0.785 / float64(fps)
}

func (t *turntable) Update() {
	t.Yaw.Position += t.Auto
	t.Yaw.Update()
	t.Pitch.Update()
}

// ToggleAuto starts or stops the constant spin.
func (t *turntable) ToggleAuto() {
	if t.Auto != 0 {
		t.Auto = 0
		return
	}
	t.Auto = autoSpin(t.fps)
}

// Reset returns to the initial view and stops all motion.
func (t *turntable) Reset() {
	*t = *newTurntable(t.fps)
}
