// Package delay provides circular delay-line filters used to build
// reverberation tails.
//
// [Comb] is a feedback comb with a one-pole low-pass in the feedback path
// (damping). [Allpass] is the Schroeder all-pass diffuser. Both advance one
// cursor per sample over a fixed-size buffer and never allocate after
// construction.
package delay
