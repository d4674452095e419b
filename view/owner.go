package view

import (
	"strconv"
	"sync/atomic"
)

var ownerSerial = &atomic.Uint64{}

// Owner tags the view that is allowed to mutate a label binding. Bindings inherited by reference from a parent keep
// the parent's tag.
type Owner struct {
	View   string
	Serial uint64
}

func newOwner(view string) Owner {
	return Owner{
		View:   view,
		Serial: ownerSerial.Add(1),
	}
}

func (s Owner) IsZero() bool {
	return s.Serial == 0
}

func (s Owner) String() string {
	return s.View + "#" + strconv.FormatUint(s.Serial, 10)
}
