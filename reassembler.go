package callerid

import (
	"bytes"
	"iter"
	"strings"
	"unicode/utf8"
)

// LineBuffer reassembles a serial byte stream into trimmed text lines.
// It is not safe for concurrent use; the listener goroutine owns it.
type LineBuffer struct {
	buf     []byte
	maxLine int

	// discarding is set once a partial line outgrew maxLine and stays set
	// until that line's terminator has been consumed
	discarding bool
	dropped    int
}

// NewLineBuffer returns a buffer that drops lines longer than maxLine bytes.
// A maxLine of zero or less disables the limit.
func NewLineBuffer(maxLine int) *LineBuffer {
	return &LineBuffer{maxLine: maxLine}
}

// Feed appends p and returns the complete lines now available.
//
// Bytes are buffered immediately; lines are removed from the buffer as the
// sequence is consumed, so lines left unread by an early break are returned
// by the next Feed. Each line is decoded with invalid UTF-8 replaced by
// U+FFFD and trimmed of surrounding whitespace; empty lines are skipped.
func (b *LineBuffer) Feed(p []byte) iter.Seq[string] {
	b.buf = append(b.buf, p...)

	return func(yield func(string) bool) {
		for {
			line, ok := b.next()
			if !ok {
				return
			}
			if !yield(line) {
				return
			}
		}
	}
}

// next removes and returns the next non-empty complete line
func (b *LineBuffer) next() (string, bool) {
	for {
		idx := bytes.IndexByte(b.buf, '\n')
		if idx < 0 {
			b.checkOverflow()
			return "", false
		}

		raw := b.buf[:idx]
		b.buf = b.buf[idx+1:]

		if b.discarding {
			b.discarding = false
			continue
		}
		if b.maxLine > 0 && len(raw) > b.maxLine {
			b.dropped++
			continue
		}

		line := strings.TrimSpace(decodeLossy(raw))
		if line == "" {
			continue
		}
		return line, true
	}
}

// checkOverflow drops an unterminated line once it exceeds the limit
func (b *LineBuffer) checkOverflow() {
	if b.maxLine <= 0 || len(b.buf) <= b.maxLine {
		return
	}
	if !b.discarding {
		b.dropped++
	}
	b.discarding = true
	b.buf = b.buf[:0]
}

// Reset discards all buffered bytes
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
	b.discarding = false
}

// Pending returns the number of buffered bytes
func (b *LineBuffer) Pending() int {
	return len(b.buf)
}

// Dropped returns how many lines were discarded for exceeding the limit
func (b *LineBuffer) Dropped() int {
	return b.dropped
}

func decodeLossy(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
