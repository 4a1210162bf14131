package ui

import (
	"fmt"
	"sync"
	"time"
)

var brailleFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays an animated progress indicator on errOut, so piped
// stdout stays clean.
type Spinner struct {
	mu      sync.Mutex
	msg     string
	done    chan struct{}
	stopped chan struct{}
}

// StartSpinner begins an animated spinner with the given message.
// In non-TTY mode it prints the message once and returns immediately.
// Call Stop() to clear the spinner line.
func (u *UI) StartSpinner(msg string) *Spinner {
	s := &Spinner{
		msg:     msg,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if !u.isTTY {
		_, _ = fmt.Fprintf(u.errOut, "  %s...\n", msg)
		close(s.stopped)
		return s
	}

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.done:
				_, _ = fmt.Fprintf(u.errOut, "\r\033[K")
				return
			case <-ticker.C:
				frame := brailleFrames[i%len(brailleFrames)]
				_, _ = fmt.Fprintf(u.errOut, "\r\033[K  %s %s", frame, s.message())
				i++
			}
		}
	}()

	return s
}

// SetMessage replaces the text shown next to the spinner. It has no
// visible effect in non-TTY mode.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

func (s *Spinner) message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// Stop halts the spinner and clears its line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	<-s.stopped
}
