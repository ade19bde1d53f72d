package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Status shows a spinner in the terminal title while a turn is in flight
type Status struct {
	w io.Writer

	mu      sync.Mutex
	text    string
	started time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewStatus creates a title spinner writing escape sequences to w
func NewStatus(w io.Writer) *Status {
	return &Status{w: w}
}

// setTitle sets the terminal title using OSC 0
func (s *Status) setTitle(title string) {
	fmt.Fprintf(s.w, "\033]0;%s\007", title)
}

// Start shows text with a spinner until Stop is called
func (s *Status) Start(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		s.text = text
		return
	}
	s.text = text
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

// Stop halts the spinner and clears the title
func (s *Status) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	s.setTitle("")
}

func (s *Status) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			elapsed := time.Since(s.started).Seconds()
			text := s.text
			s.mu.Unlock()
			s.setTitle(fmt.Sprintf("%s %s [%.1fs]", frames[i%len(frames)], text, elapsed))
		}
	}
}
