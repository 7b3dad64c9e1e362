package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"golang.org/x/sync/errgroup"
)

const hetznerPerPage = 50

// Compile-time check that HetznerFetcher satisfies domain.Fetcher.
var _ domain.Fetcher = (*HetznerFetcher)(nil)

// HetznerFetcher turns Hetzner Cloud actions into account events. Hetzner
// has no single account feed, so each resource family's action list is
// read and the results are merged.
type HetznerFetcher struct {
	client *hcloud.Client
}

// NewHetznerFetcher creates a HetznerFetcher with the given hcloud client options.
// Default options (application name) are applied first; callers can override them.
func NewHetznerFetcher(opts ...hcloud.ClientOption) *HetznerFetcher {
	defaults := []hcloud.ClientOption{
		hcloud.WithApplication("eventwatch", "0.1.0"),
	}
	return &HetznerFetcher{
		client: hcloud.NewClient(append(defaults, opts...)...),
	}
}

// RegisterHetzner registers the Hetzner fetcher factory with the registry.
func RegisterHetzner() {
	Register("hetzner", func(store auth.Store, settings Settings) (domain.Fetcher, error) {
		token, err := auth.RequireToken(store, "hetzner")
		if err != nil {
			return nil, err
		}
		opts := []hcloud.ClientOption{hcloud.WithToken(token)}
		if settings.BaseURL != "" {
			opts = append(opts, hcloud.WithEndpoint(settings.BaseURL))
		}
		return NewHetznerFetcher(opts...), nil
	})
}

// GetDisplayName returns the human-readable provider name.
func (h *HetznerFetcher) GetDisplayName() string {
	return "Hetzner"
}

// actionLister is the List method shared by hcloud.ActionClient and
// hcloud.ResourceActionClient.
type actionLister interface {
	List(ctx context.Context, opts hcloud.ActionListOpts) ([]*hcloud.Action, *hcloud.Response, error)
}

func (h *HetznerFetcher) families() map[string]actionLister {
	return map[string]actionLister{
		"servers":        h.client.Server.Action,
		"volumes":        h.client.Volume.Action,
		"load_balancers": h.client.LoadBalancer.Action,
		"floating_ips":   h.client.FloatingIP.Action,
		"networks":       h.client.Network.Action,
	}
}

// FetchEvents lists the actions of every resource family concurrently.
// Each family is read newest first until an action at or before req.Since
// turns up or req.MaxPages pages were read. Tracked actions are fetched by
// id. Any failure discards the whole batch.
func (h *HetznerFetcher) FetchEvents(ctx context.Context, req domain.FetchRequest) (*domain.Batch, error) {
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	families := h.families()
	results := make([][]*hcloud.Action, len(families)+1)
	pageCounts := make([]int, len(families)+1)

	g, gctx := errgroup.WithContext(ctx)
	i := 0
	for name, lister := range families {
		idx := i
		i++
		g.Go(func() error {
			actions, pages, err := listSince(gctx, lister, req.Since, maxPages)
			if err != nil {
				return fmt.Errorf("failed to list %s actions: %w", name, mapHcloudError(err))
			}
			results[idx] = actions
			pageCounts[idx] = pages
			return nil
		})
	}
	if len(req.TrackIDs) > 0 {
		g.Go(func() error {
			actions, pages, err := listTracked(gctx, &h.client.Action, req.TrackIDs)
			if err != nil {
				return fmt.Errorf("failed to refresh tracked actions: %w", mapHcloudError(err))
			}
			results[len(families)] = actions
			pageCounts[len(families)] = pages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The same action is listed under every resource it touches.
	seen := make(map[int64]bool)
	events := []domain.Event{}
	pages := 0
	for idx, actions := range results {
		pages += pageCounts[idx]
		for _, a := range actions {
			if a == nil || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			events = append(events, toDomainEvent(a))
		}
	}
	domain.SortByCreatedDesc(events)

	return &domain.Batch{
		Events:    events,
		Watermark: domain.NextWatermark(req.Since, events),
		Pages:     pages,
	}, nil
}

// listSince pages through one family's actions sorted id:desc. Action ids
// grow with start time, so the first action at or before since ends the walk.
func listSince(ctx context.Context, lister actionLister, since time.Time, maxPages int) ([]*hcloud.Action, int, error) {
	var out []*hcloud.Action
	page := 1
	read := 0
	for read < maxPages {
		opts := hcloud.ActionListOpts{
			ListOpts: hcloud.ListOpts{Page: page, PerPage: hetznerPerPage},
			Sort:     []string{"id:desc"},
		}
		actions, resp, err := lister.List(ctx, opts)
		if err != nil {
			return nil, read, err
		}
		read++

		for _, a := range actions {
			if !since.IsZero() && !a.Started.After(since) {
				return out, read, nil
			}
			out = append(out, a)
		}

		if resp == nil || resp.Meta.Pagination == nil || resp.Meta.Pagination.NextPage == 0 {
			break
		}
		page = resp.Meta.Pagination.NextPage
	}
	return out, read, nil
}

// listTracked reads every page of the actions named by ids, with no page
// limit.
func listTracked(ctx context.Context, lister actionLister, ids []int64) ([]*hcloud.Action, int, error) {
	var out []*hcloud.Action
	page := 1
	read := 0
	for {
		opts := hcloud.ActionListOpts{
			ListOpts: hcloud.ListOpts{Page: page, PerPage: hetznerPerPage},
			ID:       ids,
		}
		actions, resp, err := lister.List(ctx, opts)
		if err != nil {
			return nil, read, err
		}
		read++
		out = append(out, actions...)

		if resp == nil || resp.Meta.Pagination == nil || resp.Meta.Pagination.NextPage == 0 {
			return out, read, nil
		}
		page = resp.Meta.Pagination.NextPage
	}
}

// mapHcloudError converts hcloud API errors to domain sentinels.
func mapHcloudError(err error) error {
	var sentinel error
	switch {
	case hcloud.IsError(err, hcloud.ErrorCodeUnauthorized), hcloud.IsError(err, hcloud.ErrorCodeForbidden):
		sentinel = domain.ErrUnauthorized
	case hcloud.IsError(err, hcloud.ErrorCodeNotFound):
		sentinel = domain.ErrNotFound
	case hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded):
		sentinel = domain.ErrRateLimited
	case hcloud.IsError(err, hcloud.ErrorCodeServiceError), hcloud.IsError(err, hcloud.ErrorCodeTimeout),
		hcloud.IsError(err, hcloud.ErrorCodeMaintenance):
		sentinel = domain.ErrServerError
	}
	if sentinel == nil || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, err.Error())
}

// --- Conversion helpers ---

// toDomainEvent converts an hcloud action to a domain.Event.
func toDomainEvent(a *hcloud.Action) domain.Event {
	e := domain.Event{
		ID:              a.ID,
		Action:          a.Command,
		PercentComplete: domain.Percent(a.Progress),
		Created:         domain.NewTimestamp(a.Started),
		Updated:         domain.NewTimestamp(a.Started),
	}
	if !a.Finished.IsZero() {
		e.Updated = domain.NewTimestamp(a.Finished)
	}

	switch a.Status {
	case hcloud.ActionStatusSuccess:
		e.Status = domain.StatusFinished
		e.PercentComplete = domain.Percent(100)
	case hcloud.ActionStatusError:
		// A failed action is over; it completes like a successful one.
		e.Status = domain.StatusFailed
		e.PercentComplete = domain.Percent(100)
		e.Message = a.ErrorMessage
		if a.ErrorCode != "" {
			e.Message = a.ErrorCode + ": " + a.ErrorMessage
		}
	default:
		e.Status = domain.StatusStarted
	}

	if len(a.Resources) > 0 && a.Resources[0] != nil {
		r := a.Resources[0]
		e.Entity = &domain.Entity{
			ID:   domain.EntityID(strconv.FormatInt(r.ID, 10)),
			Type: string(r.Type),
		}
	}
	return e
}
