// Package modulation provides the time-varying stages of the guitar chain.
//
// Included stages:
//   - Tremolo: LFO amplitude modulation.
//   - Chorus: dual-sine modulated delay with per-channel phase spread.
//   - Wah: envelope and LFO driven band-pass sweep.
//
// Each stage reads its parameters from a lock-free params struct once per
// call and processes interleaved float64 buffers in place. A disabled stage
// leaves the buffer untouched.
package modulation
