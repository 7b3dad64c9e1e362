package tui

import (
	"context"
	"errors"
	"io"
	"os"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrFetchAborted is returned when the user cancels a fetch.
var ErrFetchAborted = errors.New("fetch aborted by user")

// FetchWithSpinner runs one fetch behind a spinner written to out.
func FetchWithSpinner(ctx context.Context, out io.Writer, fetcher domain.Fetcher, req domain.FetchRequest) (*domain.Batch, error) {
	accessible := os.Getenv("ACCESSIBLE") != ""

	var batch *domain.Batch
	err := spinner.New().
		Title("Fetching events from " + fetcher.GetDisplayName() + "...").
		Accessible(accessible).
		Output(out).
		Context(ctx).
		ActionWithErr(func(ctx context.Context) error {
			var err error
			batch, err = fetcher.FetchEvents(ctx, req)
			return err
		}).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return nil, ErrFetchAborted
		}
		return nil, err
	}
	return batch, nil
}
