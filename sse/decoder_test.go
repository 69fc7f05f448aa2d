package sse_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/aira"
	"github.com/fwojciec/aira/sse"
	"github.com/stretchr/testify/assert"
)

// decodeChunks feeds chunks through a fresh decoder and flushes it.
func decodeChunks(chunks ...string) []aira.Event {
	d := sse.NewDecoder()
	var events []aira.Event
	for _, c := range chunks {
		events = append(events, d.Decode([]byte(c))...)
	}
	return append(events, d.Flush()...)
}

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	t.Run("reassembles a frame split across chunks", func(t *testing.T) {
		t.Parallel()
		got := decodeChunks("data: Hel", "lo wor", "ld\n\n", "data: [DONE]\n\n")
		assert.Equal(t, []aira.Event{
			aira.EventToken{Text: "Hello world"},
			aira.EventDone{},
		}, got)
	})

	t.Run("returns nothing until a delimiter arrives", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Empty(t, d.Decode([]byte("data: partial")))
		assert.Empty(t, d.Decode([]byte("\n")))
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "partial"}}, d.Decode([]byte("\n")))
	})

	t.Run("emits several frames from one chunk in order", func(t *testing.T) {
		t.Parallel()
		got := decodeChunks("data: a\n\ndata: b\n\ndata: c\n\n")
		assert.Equal(t, []aira.Event{
			aira.EventToken{Text: "a"},
			aira.EventToken{Text: "b"},
			aira.EventToken{Text: "c"},
		}, got)
	})

	t.Run("keeps inner newlines of a payload", func(t *testing.T) {
		t.Parallel()
		got := decodeChunks("data: line one\nline two\n\n")
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "line one\nline two"}}, got)
	})

	t.Run("surfaces frames without the data prefix", func(t *testing.T) {
		t.Parallel()
		got := decodeChunks("event: ping\n\ndata: ok\n\n")
		assert.Equal(t, []aira.Event{
			aira.EventMalformedFrame{Raw: "event: ping"},
			aira.EventToken{Text: "ok"},
		}, got)
	})

	t.Run("skips empty frames and payloads", func(t *testing.T) {
		t.Parallel()
		got := decodeChunks("\n\n\n\ndata: \n\ndata: x\n\n")
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "x"}}, got)
	})

	t.Run("emits done once and nothing after it", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		got := d.Decode([]byte("data: a\n\ndata: [DONE]\n\ndata: b\n\n"))
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "a"}, aira.EventDone{}}, got)
		assert.Empty(t, d.Decode([]byte("data: c\n\ndata: [DONE]\n\n")))
		assert.Empty(t, d.Flush())
	})

	t.Run("replaces invalid bytes", func(t *testing.T) {
		t.Parallel()
		got := decodeChunks("data: \xffx\n\n")
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "�x"}}, got)
	})

	t.Run("holds back a rune split across chunks", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Empty(t, d.Decode([]byte("data: \xe4\xb8")))
		got := d.Decode([]byte("\x96\n\n"))
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "世"}}, got)
	})
}

func TestDecoder_ChunkBoundaries(t *testing.T) {
	t.Parallel()

	wire := "data: héllo 世界\n\nevent: ping\n\ndata: **bold** 🎉\nnext\n\ndata: \n\ndata: [DONE]\n\n"
	want := decodeChunks(wire)
	assert.Equal(t, []aira.Event{
		aira.EventToken{Text: "héllo 世界"},
		aira.EventMalformedFrame{Raw: "event: ping"},
		aira.EventToken{Text: "**bold** 🎉\nnext"},
		aira.EventDone{},
	}, want)

	t.Run("every two-way split", func(t *testing.T) {
		t.Parallel()
		for i := 0; i <= len(wire); i++ {
			assert.Equal(t, want, decodeChunks(wire[:i], wire[i:]), "split at %d", i)
		}
	})

	t.Run("every three-way split", func(t *testing.T) {
		t.Parallel()
		for i := 0; i <= len(wire); i++ {
			for j := i; j <= len(wire); j++ {
				got := decodeChunks(wire[:i], wire[i:j], wire[j:])
				if !assert.Equal(t, want, got, "split at %d and %d", i, j) {
					return
				}
			}
		}
	})

	t.Run("one byte at a time", func(t *testing.T) {
		t.Parallel()
		chunks := make([]string, len(wire))
		for i := range len(wire) {
			chunks[i] = wire[i : i+1]
		}
		assert.Equal(t, want, decodeChunks(chunks...))
	})
}

func TestDecoder_Flush(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []aira.Event
	}{
		{"nothing buffered", "", nil},
		{"unterminated data frame", "data: tail", []aira.Event{aira.EventToken{Text: "tail"}}},
		{"payload newline is kept", "data: code\n", []aira.Event{aira.EventToken{Text: "code\n"}}},
		{"raw remainder keeps its newline", "plain\n", []aira.Event{aira.EventToken{Text: "plain\n"}}},
		{"sentinel before half a delimiter", "data: [DONE]\n", []aira.Event{aira.EventDone{}}},
		{"half a delimiter alone", "\n", nil},
		{"raw remainder", "plain text", []aira.Event{aira.EventToken{Text: "plain text"}}},
		{"unterminated sentinel", "data: [DONE]", []aira.Event{aira.EventDone{}}},
		{"truncated rune", "data: a\xe4\xb8", []aira.Event{aira.EventToken{Text: "a�"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := sse.NewDecoder()
			assert.Empty(t, d.Decode([]byte(tt.input)))
			assert.Equal(t, tt.want, d.Flush())
			assert.Empty(t, d.Flush())
		})
	}
}

func TestDecoder_LongFrame(t *testing.T) {
	t.Parallel()

	t.Run("delimiter split across chunks", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Empty(t, d.Decode([]byte("data: a\n")))
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "a"}}, d.Decode([]byte("\ndata: b")))
		assert.Equal(t, []aira.Event{aira.EventToken{Text: "b"}}, d.Flush())
	})

	t.Run("frame arriving one byte at a time", func(t *testing.T) {
		t.Parallel()
		payload := strings.Repeat("lorem ipsum\n", 2000) + "end"
		wire := "data: " + payload + "\n\ndata: [DONE]\n\n"
		d := sse.NewDecoder()
		var events []aira.Event
		for i := range len(wire) {
			events = append(events, d.Decode([]byte{wire[i]})...)
		}
		assert.Equal(t, []aira.Event{aira.EventToken{Text: payload}, aira.EventDone{}}, events)
	})
}
