// Package monitor detects pasteboard changes and classifies the new contents
// into history content.
//
// Detection is split in two: Classify is a pure function from a pasteboard
// Snapshot to an optional Content, and Detector holds the last observed change
// count. Scheduling the polls is the caller's job (see package engine).
package monitor

import (
	"time"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/content"
)

// DefaultInterval is the pasteboard polling period.
const DefaultInterval = 500 * time.Millisecond

// Snapshot holds the representations present on the pasteboard at one
// instant. A nil Text means no text representation.
type Snapshot struct {
	Text  *string
	Image []byte
	Files []string
}

// Read captures the current pasteboard representations.
func Read(pb clip.Pasteboard) Snapshot {
	var s Snapshot
	if text, ok := pb.ReadString(); ok {
		s.Text = &text
	}
	if img, ok := pb.ReadImage(); ok {
		s.Image = img
	}
	if files, ok := pb.ReadFileURLs(); ok {
		s.Files = files
	}
	return s
}

// Classify picks the representation to record: non-empty text first, then
// image data, then the first file of the file list. It returns nil, nil when
// nothing is recordable, and a *content.DecodeError when the winning
// representation cannot be interpreted; the change is then skipped.
func Classify(s Snapshot) (content.Content, error) {
	switch {
	case s.Text != nil && *s.Text != "":
		return content.Decode(content.KindText, []byte(*s.Text))
	case len(s.Image) > 0:
		return content.Decode(content.KindImage, s.Image)
	case len(s.Files) > 0 && s.Files[0] != "":
		return content.Decode(content.KindFile, []byte(s.Files[0]))
	}
	return nil, nil
}

// State is the detector state.
type State int

const (
	// Idle: waiting for the next poll.
	Idle State = iota
	// Classifying: a change was seen and the contents are being read.
	Classifying
)

func (s State) String() string {
	if s == Classifying {
		return "classifying"
	}
	return "idle"
}

// Detector compares the pasteboard change count against the last observed
// value. It is not safe for concurrent use.
type Detector struct {
	pb    clip.Pasteboard
	last  int64
	state State
	// onState is a test hook called on every state transition.
	onState func(State)
}

// NewDetector returns a Detector that treats the current pasteboard contents
// as already seen.
func NewDetector(pb clip.Pasteboard) *Detector {
	return &Detector{pb: pb, last: pb.ChangeCount()}
}

// State returns the current state.
func (d *Detector) State() State { return d.state }

// Observe records the current change count without classifying, so that a
// write made by the caller itself is not detected as a new copy.
func (d *Detector) Observe() { d.last = d.pb.ChangeCount() }

// Poll checks for a change. It returns nil, nil when the pasteboard did not
// change or holds nothing recordable.
func (d *Detector) Poll() (content.Content, error) {
	cc := d.pb.ChangeCount()
	if cc == d.last {
		return nil, nil
	}
	d.last = cc

	d.setState(Classifying)
	defer d.setState(Idle)
	return Classify(Read(d.pb))
}

func (d *Detector) setState(s State) {
	d.state = s
	if d.onState != nil {
		d.onState(s)
	}
}
