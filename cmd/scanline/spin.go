package main

import "github.com/charmbracelet/harmonica"

// spinAxis tracks the angle and angular velocity of one rotation axis. A
// spring pulls the velocity back to zero so spins coast to a stop.
type spinAxis struct {
	Angle    float64
	Velocity float64
	spring   harmonica.Spring
	accel    float64
}

func newSpinAxis(fps int) spinAxis {
	// Critically damped, so the velocity never overshoots into reverse.
	return spinAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (a *spinAxis) update() {
	a.Angle += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

// moving reports whether the axis still turns visibly.
func (a *spinAxis) moving() bool {
	const rest = 1e-4
	return a.Velocity > rest || a.Velocity < -rest
}

type spin struct {
	Pitch, Yaw, Roll spinAxis
	fps              int
}

func newSpin(fps int) *spin {
	s := &spin{fps: fps}
	s.reset()
	return s
}

func (s *spin) update() {
	s.Pitch.update()
	s.Yaw.update()
	s.Roll.update()
}

func (s *spin) impulse(pitch, yaw, roll float64) {
	s.Pitch.Velocity += pitch
	s.Yaw.Velocity += yaw
	s.Roll.Velocity += roll
}

func (s *spin) moving() bool {
	return s.Pitch.moving() || s.Yaw.moving() || s.Roll.moving()
}

func (s *spin) reset() {
	s.Pitch = newSpinAxis(s.fps)
	s.Yaw = newSpinAxis(s.fps)
	s.Roll = newSpinAxis(s.fps)
}
