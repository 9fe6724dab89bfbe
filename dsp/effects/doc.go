// Package effects provides the nonlinear drive stages of the guitar chain.
//
// Subpackages:
//   - github.com/cwbudde/algo-guitarfx/dsp/effects/dynamics
//   - github.com/cwbudde/algo-guitarfx/dsp/effects/modulation
//   - github.com/cwbudde/algo-guitarfx/dsp/effects/reverb
//
// Effects remaining in this package:
//   - Overdrive: asymmetric tube-style drive with a bass/treble tilt.
//   - BluesDriver: three-region asymmetric clipper into a scooped tone stack.
//   - Warm: glue compression, polynomial saturation and treble roll-off.
//
// Stages process interleaved float64 buffers in place with zero-allocation
// hot paths and read their controls once per call.
package effects
