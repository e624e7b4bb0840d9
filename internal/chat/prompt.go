package chat

import "sync"

// MaxPromptLength bounds a typed line, in runes.
const MaxPromptLength = 200

// Prompt is the line being typed. While open, keys go to the prompt instead
// of the player controls.
type Prompt struct {
	mu   sync.Mutex
	open bool
	buf  []rune
}

// Open starts typing.
func (p *Prompt) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
}

// Cancel closes the prompt and discards the text.
func (p *Prompt) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.buf = p.buf[:0]
}

// IsOpen reports whether a line is being typed.
func (p *Prompt) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Type appends runes, dropping control characters and anything past
// MaxPromptLength.
func (p *Prompt) Type(rs ...rune) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return
	}
	for _, r := range rs {
		if r < ' ' || r == 0x7f {
			continue
		}
		if len(p.buf) >= MaxPromptLength {
			return
		}
		p.buf = append(p.buf, r)
	}
}

// Backspace removes the last rune.
func (p *Prompt) Backspace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.buf); n > 0 {
		p.buf = p.buf[:n-1]
	}
}

// Text returns the current line.
func (p *Prompt) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.buf)
}

// Take closes the prompt and returns what was typed.
func (p *Prompt) Take() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	text := string(p.buf)
	p.open = false
	p.buf = p.buf[:0]
	return text
}
