package progress

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/billing-report/internal/report"
)

// ErrInterrupted is returned by Run when the user aborts the view.
var ErrInterrupted = errors.New("interrupted")

// Run shows the progress view on out while work executes. work receives a
// context that is cancelled if the user aborts, and a callback to forward
// aggregator events. Run returns only after work has returned.
func Run(ctx context.Context, out io.Writer, labels []string,
	work func(ctx context.Context, onEvent func(report.Event)), opts ...tea.ProgramOption,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(labels), opts...)

	workDone := make(chan struct{})
	go func() {
		defer close(workDone)
		work(ctx, func(ev report.Event) { p.Send(EventMsg(ev)) })
		p.Send(DoneMsg{})
	}()

	final, err := p.Run()
	parentErr := ctx.Err()
	interrupted := errors.Is(err, tea.ErrInterrupted)
	if m, ok := final.(Model); ok && m.Interrupted() {
		interrupted = true
	}
	if interrupted {
		cancel()
	}
	<-workDone

	switch {
	case interrupted:
		return ErrInterrupted
	case err != nil && parentErr != nil:
		return parentErr
	case err != nil:
		return fmt.Errorf("progress view: %w", err)
	}
	return nil
}
