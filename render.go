package aira

// RenderOutput is one externally observable render of a turn. Markup is a
// flat string safe to insert as-is into a display surface: all text is
// HTML-escaped except for the structural markup the renderer introduces.
type RenderOutput struct {
	Markup  string
	IsFinal bool
}

// RenderState is a snapshot of the renderer's bookkeeping for one turn.
// AccumulatedText only ever grows within a turn, and LastRenderedLength is
// the length of AccumulatedText at the last emitted render, so it never
// exceeds len(AccumulatedText).
type RenderState struct {
	AccumulatedText    string
	OpenCodeFence      bool
	LastRenderedLength int
}

// Renderer projects an event sequence onto markup. Apply is called once per
// event in arrival order. The boolean result reports whether the output is
// observable now; a throttled update leaves the renderer Pending until Flush
// or the terminal event. Renderers are owned by a single turn and are not
// safe for concurrent use.
type Renderer interface {
	Apply(evt Event) (RenderOutput, bool)
	Pending() bool
	Flush() (RenderOutput, bool)
	State() RenderState
}

// Highlighter turns raw source code into highlighted markup. The returned
// markup must be safe to embed inside a code element.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}
