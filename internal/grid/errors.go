package grid

import "fmt"

// FormatError reports a serialized grid that cannot become a full board.
type FormatError struct {
	Reason string
	Got    int
	Want   int
	Err    error
}

func (e *FormatError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("grid format: %s: %v", e.Reason, e.Err)
	case e.Want > 0 && e.Got > 0:
		return fmt.Sprintf("grid format: %s: got %d, want %d", e.Reason, e.Got, e.Want)
	default:
		return "grid format: " + e.Reason
	}
}

func (e *FormatError) Unwrap() error { return e.Err }
