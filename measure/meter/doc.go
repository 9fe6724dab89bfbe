// Package meter measures the processed output of the effect chain.
//
// The audio goroutine feeds a Meter with every rendered buffer through
// Write, which only touches atomics and never allocates. A control
// goroutine calls Read to obtain peak and RMS levels in dBFS together with
// the dominant pitch of the most recent FFTSize samples and its nearest
// equal-tempered note.
package meter
