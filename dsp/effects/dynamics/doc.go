// Package dynamics provides the compressor/sustainer stage.
//
// The compressor follows each channel's peak envelope, applies a soft-knee
// log-domain gain law with a very slow gain smoother, and then re-voices
// the result with a low/high tilt and a final soft limiter.
package dynamics
