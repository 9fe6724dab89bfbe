// Package effectchain composes the guitar stages into a fixed-order chain.
//
// A Chain owns one runtime per stage, built through a Registry, and a
// shared Params store. Stages run in StageOrder; the master volume is
// applied last.
package effectchain
