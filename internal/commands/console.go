package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/billed/internal/application/port"
)

// console prints the new bill form effects to the terminal
type console struct {
	out  io.Writer
	next port.ErrorReporter
	// route is the view the form asked to move to, shown after a submit
	route string
}

func (c *console) Warn(ctx context.Context, message string) {
	fmt.Fprintf(c.out, "warning: %s\n", message)
}

func (c *console) ClearFileInput(ctx context.Context) {}

func (c *console) Navigate(ctx context.Context, route string) {
	c.route = route
}

func (c *console) Report(ctx context.Context, err error) {
	fmt.Fprintf(c.out, "error: %v\n", err)
	if c.next != nil {
		c.next.Report(ctx, err)
	}
}
