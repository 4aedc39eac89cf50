package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/fpgaroute/pkg/observability"
)

// Spinner provides a simple progress indicator with context cancellation support.
type Spinner struct {
	w       io.Writer
	message string
	width   int // widest message shown, for clearing
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	mu      sync.Mutex
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       os.Stderr,
		message: message,
		width:   len(message),
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				frame := s.frames[i%len(s.frames)]
				s.mu.Lock()
				fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(pad(s.message, s.width)))
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+4))
}

// Update replaces the message shown next to the spinner.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	s.width = max(s.width, len(message))
}

func (s *Spinner) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func pad(msg string, width int) string {
	if len(msg) >= width {
		return msg
	}
	return msg + strings.Repeat(" ", width-len(msg))
}

// routeProgress forwards router events to next and shows the iteration
// count and congestion on a spinner.
type routeProgress struct {
	observability.RouterHooks
	spinner *Spinner
}

// watchRouting installs a routeProgress on s until the returned function is
// called.
func watchRouting(s *Spinner) (restore func()) {
	prev := observability.Router()
	observability.SetRouterHooks(&routeProgress{RouterHooks: prev, spinner: s})
	return func() { observability.SetRouterHooks(prev) }
}

func (p *routeProgress) OnIterationStart(ctx context.Context, iter int, presFac float64) {
	p.spinner.Update(fmt.Sprintf("Routing, iteration %d (pres_fac %.3g)", iter, presFac))
	p.RouterHooks.OnIterationStart(ctx, iter, presFac)
}

func (p *routeProgress) OnIterationComplete(ctx context.Context, iter, overused, wirelength int, d time.Duration) {
	p.spinner.Update(fmt.Sprintf("Routing, iteration %d: %d over-used, wirelength %d", iter, overused, wirelength))
	p.RouterHooks.OnIterationComplete(ctx, iter, overused, wirelength, d)
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
