package format

import (
	"io"
	"strings"
	"sync"
)

// TextStream prints a growing reply to a line-oriented terminal. Only the
// new suffix is written on each update; when the text is replaced rather
// than extended (an apology after a failed stream) it starts a new line.
type TextStream struct {
	w io.Writer

	mu      sync.Mutex
	printed string
	html    string
}

func NewTextStream(w io.Writer) *TextStream {
	return &TextStream{w: w}
}

// Update records the latest HTML rendering.
func (s *TextStream) Update(html string) {
	s.mu.Lock()
	s.html = html
	s.mu.Unlock()
}

func (s *TextStream) UpdateSource(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.HasPrefix(text, s.printed) {
		_, _ = io.WriteString(s.w, text[len(s.printed):])
	} else {
		_, _ = io.WriteString(s.w, "\n"+text)
	}
	s.printed = text
}

// End terminates the current reply and resets the stream for the next one.
func (s *TextStream) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.printed != "" && !strings.HasSuffix(s.printed, "\n") {
		_, _ = io.WriteString(s.w, "\n")
	}
	s.printed = ""
}

// HTML returns the last HTML rendering received.
func (s *TextStream) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.html
}
