package dashboard

import (
	"context"
	"time"

	"github.com/agozel5/Honeypot/internal/models"
	"github.com/agozel5/Honeypot/internal/query"
	"github.com/agozel5/Honeypot/internal/scheduler"
)

// LogAPI is the backend as the log view sees it.
type LogAPI interface {
	LinkDeleter
	FetchPage(ctx context.Context, p query.Params) (*models.LogPage, error)
}

// LogsView drives the paginated, filterable click log. Every exported
// method is safe to call from any goroutine and returns immediately; the
// work happens on the view's loop while Run is active.
type LogsView struct {
	*view
	api   LogAPI
	state *query.State
	sched *scheduler.Scheduler

	// seq is the number of the latest fetch issued. Loop only.
	seq uint64
}

func NewLogsView(api LogAPI, state *query.State, opts ...Option) *LogsView {
	if state == nil {
		state = query.New()
	}
	v := &LogsView{
		view:  newView(api, opts),
		api:   api,
		state: state,
		sched: scheduler.New(),
	}
	// Queued first so the initial load sees the state as constructed.
	v.loop.Post(func() {
		v.arm()
		v.fetch()
	})
	return v
}

// Run loads the first page, arms auto-refresh and serves triggers until ctx
// is done. Results that arrive afterwards are dropped.
func (v *LogsView) Run(ctx context.Context) error {
	defer v.sched.Stop()
	v.run(ctx)
	return nil
}

func (v *LogsView) SetFilter(f query.Filter, value string) {
	v.trigger(func() { v.state.SetFilter(f, value) })
}

func (v *LogsView) SetPerPage(n int) {
	v.trigger(func() { v.state.SetPerPage(n) })
}

// SetPerPageInput applies the raw per-page field.
func (v *LogsView) SetPerPageInput(raw string) {
	v.trigger(func() { v.state.SetPerPageInput(raw) })
}

func (v *LogsView) NextPage() { v.trigger(v.state.NextPage) }
func (v *LogsView) PrevPage() { v.trigger(v.state.PrevPage) }

// Refresh reloads the current page with the current state.
func (v *LogsView) Refresh() { v.trigger(nil) }

// SetRefreshInterval replaces the auto-refresh timer; d <= 0 disables it.
func (v *LogsView) SetRefreshInterval(d time.Duration) {
	v.loop.Post(func() {
		v.state.SetRefreshInterval(d)
		v.arm()
	})
}

// DeleteLink asks for confirmation, deletes the link and reloads the page.
func (v *LogsView) DeleteLink(linkID string) {
	v.loop.Post(func() {
		v.deleteLink(linkID, PromptDeleteFromLogs, ReconcileRefetch, v.fetch)
	})
}

func (v *LogsView) trigger(mutate func()) {
	v.loop.Post(func() {
		if mutate != nil {
			mutate()
		}
		v.fetch()
	})
}

func (v *LogsView) arm() {
	v.sched.SetInterval(v.state.RefreshInterval(), func() {
		v.loop.Post(v.fetch)
	})
}

func (v *LogsView) fetch() {
	v.seq++
	seq := v.seq
	params := v.state.Snapshot()
	ctx := v.ctx

	go func() {
		page, err := v.api.FetchPage(ctx, params)
		v.loop.Post(func() { v.fetched(seq, params, page, err) })
	}()
}

func (v *LogsView) fetched(seq uint64, params query.Params, page *models.LogPage, err error) {
	if v.ctx.Err() != nil {
		return
	}
	if seq != v.seq {
		v.log.Debug("discarding stale page", "seq", seq, "latest", v.seq, "page", params.Page)
		return
	}
	if err != nil {
		v.log.Warn("fetch logs failed", "page", params.Page, "error", err)
		v.notifier.Notify(FailureMessage(err))
		return
	}
	if err := v.renderer.Render(v.table, page, params.PerPage, v.DeleteLink); err != nil {
		v.log.Error("render logs", "error", err)
		v.notifier.Notify(MsgProtocol)
	}
}
