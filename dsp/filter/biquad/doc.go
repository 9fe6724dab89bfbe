// Package biquad provides second-order IIR coefficients and the resonator
// runtime the wah stage is voiced with.
//
// [Coefficients] holds a normalized transfer function and [BandPass]
// designs one from the RBJ cookbook formulas. A [Resonator] runs it
// against its own output history.
package biquad
