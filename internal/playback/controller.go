// Package playback maps a selected index in the result store to what the
// view should draw.
package playback

import (
	"errors"
	"fmt"

	"github.com/san-kum/expressfrac/internal/frac"
)

var ErrOutOfRange = errors.New("playback: index out of range")

// None is the index meaning "nothing selected".
const None = -1

// Source is the live store the controller validates against.
type Source interface {
	Len() int
	Get(index int) (frac.StepResult, error)
}

// Renderer receives draw instructions. Clear is called when nothing is
// selected.
type Renderer interface {
	Render(index int, step frac.StepResult)
	Clear()
}

type nopRenderer struct{}

func (nopRenderer) Render(int, frac.StepResult) {}
func (nopRenderer) Clear()                      {}

// Controller holds the current index, bounded to [None, Len()-1] of the
// live source. It always follows the newest result as steps arrive.
type Controller struct {
	src   Source
	r     Renderer
	index int
}

func New(src Source, r Renderer) *Controller {
	if r == nil {
		r = nopRenderer{}
	}
	return &Controller{src: src, r: r, index: None}
}

// SetRenderer swaps the draw target and redraws the current selection.
func (c *Controller) SetRenderer(r Renderer) {
	if r == nil {
		r = nopRenderer{}
	}
	c.r = r
	c.redraw()
}

func (c *Controller) Index() int { return c.index }

// Bound is the highest selectable index.
func (c *Controller) Bound() int { return c.src.Len() - 1 }

// SetIndex selects i. Out-of-range values are rejected and the previous
// selection is kept.
func (c *Controller) SetIndex(i int) error {
	if i < None || i > c.Bound() {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, i, None, c.Bound())
	}
	c.index = i
	c.redraw()
	return nil
}

// Step moves the selection by delta, clamped to the valid steps.
func (c *Controller) Step(delta int) {
	bound := c.Bound()
	if bound < 0 {
		return
	}
	i := c.index + delta
	if c.index == None && delta < 0 {
		i = bound
	}
	if i < 0 {
		i = 0
	}
	if i > bound {
		i = bound
	}
	c.SetIndex(i)
}

// First selects the earliest step, or nothing when the store is empty.
func (c *Controller) First() {
	if c.Bound() < 0 {
		c.SetIndex(None)
		return
	}
	c.SetIndex(0)
}

func (c *Controller) Last() { c.SetIndex(c.Bound()) }

// AppendAdvance is called after every store append and selects the newest
// result.
func (c *Controller) AppendAdvance() {
	c.SetIndex(c.Bound())
}

// Reset clears the selection and the view.
func (c *Controller) Reset() {
	c.index = None
	c.r.Clear()
}

// Current returns the selected step, if any.
func (c *Controller) Current() (frac.StepResult, bool) {
	if c.index == None || c.index > c.Bound() {
		return frac.StepResult{}, false
	}
	st, err := c.src.Get(c.index)
	if err != nil {
		return frac.StepResult{}, false
	}
	return st, true
}

func (c *Controller) redraw() {
	st, ok := c.Current()
	if !ok {
		c.r.Clear()
		return
	}
	c.r.Render(c.index, st)
}
