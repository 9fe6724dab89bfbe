package audioio

import "errors"

// Cleanup collects release functions for resources acquired during setup
// and runs them in reverse order. A setup path defers Close and calls
// Disarm once everything succeeded, handing ownership to the session.
type Cleanup struct {
	fns      []func() error
	disarmed bool
}

// Add registers fn to run on Close.
func (c *Cleanup) Add(fn func() error) {
	if fn != nil {
		c.fns = append(c.fns, fn)
	}
}

// Disarm makes the next Close a no-op and returns a Cleanup owning the
// registered functions.
func (c *Cleanup) Disarm() *Cleanup {
	out := &Cleanup{fns: c.fns}
	c.fns = nil
	c.disarmed = true
	return out
}

// Close runs every registered function, last first, and joins their errors.
func (c *Cleanup) Close() error {
	if c.disarmed {
		return nil
	}
	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.fns = nil
	return errors.Join(errs...)
}
