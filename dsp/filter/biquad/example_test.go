package biquad_test

import (
	"fmt"

	"github.com/cwbudde/algo-guitarfx/dsp/filter/biquad"
)

func ExampleBandPass() {
	c, err := biquad.BandPass(1000, 10, 48000)
	if err != nil {
		panic(err)
	}
	fmt.Printf("b0=%.4f a1=%.4f a2=%.4f\n", c.B0, c.A1, c.A2)
	// Output:
	// b0=0.0065 a1=-1.9700 a2=0.9870
}
