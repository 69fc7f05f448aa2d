// Package sse decodes the chat backend's framed event stream: UTF-8 text
// blocks separated by a blank line, each prefixed with "data: ", terminated
// by the "[DONE]" sentinel.
package sse

import (
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/aira"
)

const (
	// Delimiter separates frames on the wire.
	Delimiter = "\n\n"
	// DataPrefix starts every well-formed frame.
	DataPrefix = "data: "
	// DoneSentinel is the payload of the terminal frame.
	DoneSentinel = "[DONE]"
)

// Interface compliance check.
var _ aira.Decoder = (*Decoder)(nil)

// Decoder splits a chunked byte stream into events. Chunk boundaries are
// meaningless: an incomplete UTF-8 sequence at the end of a chunk is held
// back, and the text after the last delimiter is carried over until the
// next delimiter or Flush. The zero value is ready to use.
type Decoder struct {
	pending []byte          // undecoded trailing bytes of an incomplete rune
	buf     strings.Builder // decoded text not yet resolved into frames
	done    bool            // sentinel seen or flushed; ignore everything else
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode consumes one chunk and returns the events of every frame it
// completed, in order.
func (d *Decoder) Decode(chunk []byte) []aira.Event {
	if d.done || len(chunk) == 0 {
		return nil
	}
	d.pending = append(d.pending, chunk...)
	n := completePrefix(d.pending)
	// Text before scanFrom was already searched; a delimiter can only start
	// one byte before the new text.
	scanFrom := max(d.buf.Len()-len(Delimiter)+1, 0)
	d.buf.WriteString(strings.ToValidUTF8(string(d.pending[:n]), string(utf8.RuneError)))
	d.pending = append(d.pending[:0], d.pending[n:]...)

	text := d.buf.String()
	if !strings.Contains(text[scanFrom:], Delimiter) {
		return nil
	}
	frames := strings.Split(text, Delimiter)
	rest := frames[len(frames)-1]
	d.buf.Reset()
	d.buf.WriteString(rest)

	var events []aira.Event
	for _, frame := range frames[:len(frames)-1] {
		evt := classify(frame)
		if evt == nil {
			continue
		}
		events = append(events, evt)
		if _, ok := evt.(aira.EventDone); ok {
			d.finish()
			break
		}
	}
	return events
}

// Flush resolves the carry-over at end of stream. A non-empty remainder is
// always emitted with its bytes intact: as a frame when it carries the data
// prefix, otherwise as raw token text. Only a remainder that is nothing but
// half a delimiter ("\n") is dropped, and a sentinel followed by one is
// still the sentinel.
func (d *Decoder) Flush() []aira.Event {
	if d.done {
		return nil
	}
	if len(d.pending) > 0 {
		d.buf.WriteString(strings.ToValidUTF8(string(d.pending), string(utf8.RuneError)))
	}
	rest := d.buf.String()
	d.finish()

	if rest == "" || rest == "\n" {
		return nil
	}
	payload, ok := strings.CutPrefix(rest, DataPrefix)
	if !ok {
		return []aira.Event{aira.EventToken{Text: rest}}
	}
	switch {
	case strings.TrimSuffix(payload, "\n") == DoneSentinel:
		return []aira.Event{aira.EventDone{}}
	case payload == "":
		return nil
	default:
		return []aira.Event{aira.EventToken{Text: payload}}
	}
}

func (d *Decoder) finish() {
	d.done = true
	d.pending = nil
	d.buf.Reset()
}

// classify maps one complete frame to its event. Empty frames and empty
// payloads produce nil.
func classify(frame string) aira.Event {
	if frame == "" {
		return nil
	}
	payload, ok := strings.CutPrefix(frame, DataPrefix)
	if !ok {
		return aira.EventMalformedFrame{Raw: frame}
	}
	switch payload {
	case DoneSentinel:
		return aira.EventDone{}
	case "":
		return nil
	default:
		return aira.EventToken{Text: payload}
	}
}

// completePrefix returns the length of the longest prefix of b that does not
// end inside an incomplete multi-byte sequence. Invalid bytes count as
// complete; only a truncated but so-far valid sequence is held back.
func completePrefix(b []byte) int {
	start := len(b) - utf8.UTFMax + 1
	if start < 0 {
		start = 0
	}
	for i := len(b) - 1; i >= start; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return i
		}
		break
	}
	return len(b)
}
