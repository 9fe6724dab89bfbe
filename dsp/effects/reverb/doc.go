// Package reverb provides the stereo room reverb stage.
//
// Reverb is a Schroeder/Freeverb-style network: eight parallel damped combs
// into four series all-passes per side, fed from a mono downmix and
// cross-mixed back into a stereo image.
package reverb
