package history

import "fmt"

// Step is a playback command.
type Step int

const (
	ForwardOneStep Step = iota
	BackwardOneStep
	ForwardTillEnd
	BackwardTillStart
)

var stepNames = map[string]Step{
	"forwardOne":    ForwardOneStep,
	"backwardOne":   BackwardOneStep,
	"forwardEnd":    ForwardTillEnd,
	"backwardStart": BackwardTillStart,
}

func ParseStep(s string) (Step, error) {
	step, ok := stepNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown playback step %q", s)
	}
	return step, nil
}

// Cursor walks a sequence of snapshots. Moves are clamped to the ends.
type Cursor struct {
	snapshots []Snapshot
	index     int
}

func NewCursor(snapshots []Snapshot) *Cursor {
	return &Cursor{snapshots: snapshots}
}

// Extend appends snapshots recorded after the cursor was created.
func (c *Cursor) Extend(more []Snapshot) {
	c.snapshots = append(c.snapshots, more...)
}

func (c *Cursor) Len() int   { return len(c.snapshots) }
func (c *Cursor) Index() int { return c.index }

func (c *Cursor) Current() (Snapshot, bool) {
	if len(c.snapshots) == 0 {
		return Snapshot{}, false
	}
	return c.snapshots[c.index], true
}

// Last returns the newest snapshot the cursor holds.
func (c *Cursor) Last() (Snapshot, bool) {
	if len(c.snapshots) == 0 {
		return Snapshot{}, false
	}
	return c.snapshots[len(c.snapshots)-1], true
}

func (c *Cursor) Move(step Step) (Snapshot, bool) {
	if len(c.snapshots) == 0 {
		return Snapshot{}, false
	}
	last := len(c.snapshots) - 1
	switch step {
	case ForwardOneStep:
		c.index = min(c.index+1, last)
	case BackwardOneStep:
		c.index = max(c.index-1, 0)
	case ForwardTillEnd:
		c.index = last
	case BackwardTillStart:
		c.index = 0
	}
	return c.snapshots[c.index], true
}
