package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const ctrlC = 0x03

// Keyboard reads single keystrokes and feeds them to a Keymap.
type Keyboard struct {
	in     io.Reader
	out    io.Writer
	keymap *Keymap
	log    logrus.FieldLogger

	fd  int
	raw bool
}

// NewKeyboard reads keys from in and writes status lines to out. When in is
// a terminal it is switched to raw mode for the duration of Run.
func NewKeyboard(in io.Reader, out io.Writer, keymap *Keymap, log logrus.FieldLogger) *Keyboard {
	k := &Keyboard{in: in, out: out, keymap: keymap, log: log, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		k.fd = int(f.Fd())
		k.raw = true
	}
	if k.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		k.log = l
	}
	return k
}

// Run dispatches keys until quit is pressed, the input ends or ctx is done.
func (k *Keyboard) Run(ctx context.Context) error {
	if k.raw {
		old, err := term.MakeRaw(k.fd)
		if err != nil {
			k.log.WithError(err).Warn("raw terminal mode unavailable, keys need Enter")
		} else {
			defer func() { _ = term.Restore(k.fd, old) }()
		}
	}

	keys := make(chan byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := k.in.Read(buf)
			if n > 0 {
				select {
				case keys <- buf[0]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("control: read key: %w", err)
		case key := <-keys:
			if key == ctrlC {
				k.status("Stopping...")
				return nil
			}
			res := k.keymap.HandleKey(key)
			if !res.Handled {
				continue
			}
			k.log.WithFields(logrus.Fields{"key": string(rune(key)), "status": res.Status}).Debug("key handled")
			k.status(res.Status)
			if res.Quit {
				return nil
			}
		}
	}
}

func (k *Keyboard) status(s string) {
	if k.out == nil {
		return
	}
	fmt.Fprintf(k.out, "\r%-40s", s)
	if k.raw {
		return
	}
	fmt.Fprintln(k.out)
}
