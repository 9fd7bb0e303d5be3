// Package terminal renders the submission status on a terminal, green for
// success and red for errors.
package terminal

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/indrajithvu22/tag/internal/submit"
)

// Display writes each shown message to w as one styled line. Hiding
// prints nothing; the terminal cannot take a line back.
type Display struct {
	w     io.Writer
	state submit.State
	text  string
}

func New(w io.Writer) *Display {
	return &Display{w: w}
}

func (d *Display) Hide() {
	d.state = submit.StateHidden
	d.text = ""
}

func (d *Display) Show(text string, state submit.State) {
	d.state = state
	d.text = text

	switch state {
	case submit.StateSuccess:
		fmt.Fprintln(d.w, color.Success.Sprint(text))
	case submit.StateError:
		fmt.Fprintln(d.w, color.Error.Sprint(text))
	default:
		fmt.Fprintln(d.w, text)
	}
}

// State returns what the display currently shows.
func (d *Display) State() (submit.State, string) {
	return d.state, d.text
}
