// Package profile generates discretized motion profiles for a fixed-rate
// control loop.
//
// A profile converts a net displacement and kinematic limits into a dense
// series of cumulative path positions, one per control step. Two velocity
// shapes are supported:
//
//   - Ramp: trapezoidal velocity. Constant acceleration to the peak
//     velocity, an optional plateau, then constant deceleration. The
//     acceleration is discontinuous at the phase boundaries.
//   - Sinoid: S-curve velocity. The acceleration follows a sin^2 pulse so
//     it is continuous at the phase boundaries; reaching the same peak
//     velocity takes twice as long as with Ramp for the same limit.
//
// In the default mode the profile is time-optimal for the limits. When the
// request carries a Duration the peak velocity is back-solved so the motion
// finishes in exactly that time, or ErrDurationUnachievable is returned.
//
// Phase times are rounded up to whole control steps and the peak values are
// re-derived from the rounded times, so the sampled path ends exactly on
// the requested displacement.
package profile
