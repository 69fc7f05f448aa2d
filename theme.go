package aira

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	UserMsg int // User message accent
	Error   int // Failure messages
	Muted   int // Status line, placeholders
	Status  int // Streaming indicator
	CodeBg  int // Code block background
	Accent  int // Headings, links, emphasis
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg: 4,
		Error:   1,
		Muted:   8,
		Status:  2,
		CodeBg:  0,
		Accent:  5,
	}
}
