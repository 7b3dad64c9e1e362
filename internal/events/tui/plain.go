package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/services/poller"
)

// RunPlain writes one line per notable snapshot change to w until ctx is
// done or snapshots is closed. Completions, poll failures and changes in
// the in-progress count are reported; quiet polls print nothing.
func RunPlain(ctx context.Context, w io.Writer, snapshots <-chan poller.Snapshot) error {
	p := plainWriter{w: w, inProgress: -1}
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if err := p.write(snap); err != nil {
				return fmt.Errorf("failed to write event line: %w", err)
			}
		}
	}
}

type plainWriter struct {
	w          io.Writer
	inProgress int
	failing    bool
}

func (p *plainWriter) write(snap poller.Snapshot) error {
	ts := snap.At.UTC().Format(time.RFC3339)

	if snap.Err != nil {
		p.failing = true
		_, err := fmt.Fprintf(p.w, "%s  poll failed  attempt=%d  %v\n", ts, snap.Failures, snap.Err)
		return err
	}
	if p.failing {
		p.failing = false
		if _, err := fmt.Fprintf(p.w, "%s  poll recovered\n", ts); err != nil {
			return err
		}
	}

	for _, e := range snap.Newly {
		if _, err := fmt.Fprintln(p.w, completionLine(ts, e)); err != nil {
			return err
		}
	}

	if n := len(snap.State.InProgress); n != p.inProgress {
		p.inProgress = n
		if _, err := fmt.Fprintf(p.w, "%s  in progress  %d\n", ts, n); err != nil {
			return err
		}
	}
	return nil
}

func completionLine(ts string, e domain.Event) string {
	line := fmt.Sprintf("%s  completed  #%d  %s  %s  %s", ts, e.ID, e.Action, e.EntityLabel(), e.Status)
	if e.Username != "" {
		line += "  by " + e.Username
	}
	return line
}
