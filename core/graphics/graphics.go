// Package graphics declares the contracts the framework draws through.
// The renderer is an external collaborator; entities only thread an
// opaque target and per-frame state down the tree.
package graphics

import "time"

// Target is the opaque sink a renderer hands the tree. Reassigning an
// entity's target propagates to every descendant.
type Target any

// State carries per-frame draw state.
type State struct {
	Delta time.Duration
	Frame uint64
}
