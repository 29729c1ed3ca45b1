// Package dashboard holds the view controllers: they own the query state,
// schedule fetches and deletions, and keep the rendered table in sync.
package dashboard

import (
	"context"
	"log/slog"

	"github.com/agozel5/Honeypot/internal/render"
)

// LinkDeleter is the part of the backend client deletion needs.
type LinkDeleter interface {
	DeleteLink(ctx context.Context, linkID string) error
}

// Reconcile decides how the table catches up after a successful deletion.
type Reconcile int

const (
	// ReconcileRefetch announces the deletion and reloads the current page.
	ReconcileRefetch Reconcile = iota
	// ReconcileRemoveRow drops the deleted row locally without a request.
	ReconcileRemoveRow
)

func (r Reconcile) String() string {
	switch r {
	case ReconcileRefetch:
		return "refetch"
	case ReconcileRemoveRow:
		return "remove-row"
	}
	return "unknown"
}

type Option func(*options)

type options struct {
	table    *render.Table
	renderer *render.Renderer
	notifier Notifier
	confirm  ConfirmFunc
	log      *slog.Logger
}

func WithTable(t *render.Table) Option { return func(o *options) { o.table = t } }
func WithNotifier(n Notifier) Option { return func(o *options) { o.notifier = n } }
func WithConfirm(fn ConfirmFunc) Option { return func(o *options) { o.confirm = fn } }
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }
func WithRenderer(r *render.Renderer) Option { return func(o *options) { o.renderer = r } }

// view is what both controllers share: the loop, the table and the
// deletion capability.
type view struct {
	loop     *Loop
	table    *render.Table
	renderer *render.Renderer
	notifier Notifier
	confirm  ConfirmFunc
	deleter  LinkDeleter
	log      *slog.Logger

	// ctx is set by run before the loop starts and only read on the loop.
	ctx context.Context
}

func newView(deleter LinkDeleter, opts []Option) *view {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.table == nil {
		o.table = render.NewTable()
	}
	if o.renderer == nil {
		o.renderer = render.New()
	}
	if o.notifier == nil {
		o.notifier = NotifierFunc(func(string) {})
	}
	// Without a prompt nothing may be deleted.
	if o.confirm == nil {
		o.confirm = func(string) bool { return false }
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return &view{
		loop:     NewLoop(o.log),
		table:    o.table,
		renderer: o.renderer,
		notifier: o.notifier,
		confirm:  o.confirm,
		deleter:  deleter,
		log:      o.log,
		ctx:      context.Background(),
	}
}

// Table is the table this view renders into.
func (v *view) Table() *render.Table { return v.table }

func (v *view) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	v.ctx = ctx
	v.loop.Run(ctx)
}

// deleteLink is the single deletion path. It runs on the loop: the prompt
// blocks it, the request does not.
func (v *view) deleteLink(linkID, prompt string, policy Reconcile, refetch func()) {
	if !v.confirm(prompt) {
		v.log.Debug("deletion declined", "link_id", linkID)
		return
	}

	ctx := v.ctx
	go func() {
		err := v.deleter.DeleteLink(ctx, linkID)
		v.loop.Post(func() { v.deleted(linkID, policy, refetch, err) })
	}()
}

func (v *view) deleted(linkID string, policy Reconcile, refetch func(), err error) {
	if v.ctx.Err() != nil {
		return
	}
	if err != nil {
		// The link may be gone server-side after a transport failure; the
		// operator decides whether to refresh.
		v.log.Warn("delete link failed", "link_id", linkID, "error", err)
		v.notifier.Notify(FailureMessage(err))
		return
	}

	v.log.Info("link deleted", "link_id", linkID, "reconcile", policy.String())
	switch policy {
	case ReconcileRefetch:
		v.notifier.Notify(DeletedMessage(linkID))
		if refetch != nil {
			refetch()
		}
	case ReconcileRemoveRow:
		v.table.RemoveRow(linkID)
	}
}
