package chat

import (
	"html"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of lines kept.
const DefaultCapacity = 50

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Log is a bounded chat history. Safe for concurrent use.
type Log struct {
	mu    sync.RWMutex
	lines []Line
	cap   int
	now   func() time.Time
}

// NewLog creates a history holding at most capacity lines.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{cap: capacity, now: time.Now}
}

// Add appends server text. Markup is reduced to plain text and <br> splits
// lines.
func (l *Log) Add(text string) {
	parts := strings.Split(breakPattern.ReplaceAllString(text, "\n"), "\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	for _, p := range parts {
		p = strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(p, "")))
		if p == "" {
			continue
		}
		l.lines = append(l.lines, Line{Text: p, At: at})
	}
	if over := len(l.lines) - l.cap; over > 0 {
		l.lines = append(l.lines[:0:0], l.lines[over:]...)
	}
}

var breakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// Clear empties the history.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

// Tail returns up to n most recent lines, oldest first.
func (l *Log) Tail(n int) []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.lines) {
		n = len(l.lines)
	}
	out := make([]Line, n)
	copy(out, l.lines[len(l.lines)-n:])
	return out
}

// Len returns the number of stored lines.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}
