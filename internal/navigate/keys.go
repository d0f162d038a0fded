package navigate

import "strings"

// Key is a navigation key event.
type Key int

const (
	KeyNone Key = iota
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyTab
	KeyBackspace
)

var keyNames = map[string]Key{
	// browser KeyboardEvent.key
	"arrowright": KeyRight,
	"arrowleft":  KeyLeft,
	"arrowdown":  KeyDown,
	"arrowup":    KeyUp,
	"tab":        KeyTab,
	"backspace":  KeyBackspace,
	// terminal
	"right": KeyRight,
	"left":  KeyLeft,
	"down":  KeyDown,
	"up":    KeyUp,
}

// ParseKey maps a browser or terminal key name to a Key.
func ParseKey(name string) (Key, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

func (k Key) String() string {
	switch k {
	case KeyRight:
		return "right"
	case KeyLeft:
		return "left"
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	case KeyTab:
		return "tab"
	case KeyBackspace:
		return "backspace"
	}
	return "none"
}
