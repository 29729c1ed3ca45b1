package dashboard

import (
	"context"

	"github.com/agozel5/Honeypot/internal/models"
)

// IndexView is the static list of recent links. Rows are loaded once and
// only ever shrink, one successful deletion at a time.
type IndexView struct {
	*view
}

func NewIndexView(api LinkDeleter, opts ...Option) *IndexView {
	return &IndexView{view: newView(api, opts)}
}

// Run serves deletions until ctx is done.
func (v *IndexView) Run(ctx context.Context) error {
	v.run(ctx)
	return nil
}

// Load renders links as the view's rows.
func (v *IndexView) Load(links []models.Link) {
	v.loop.Post(func() {
		if err := v.renderer.RenderLinks(v.table, links, v.DeleteLink); err != nil {
			v.log.Error("render links", "error", err)
		}
	})
}

// DeleteLink asks for confirmation, deletes the link and drops its row.
func (v *IndexView) DeleteLink(linkID string) {
	v.loop.Post(func() {
		v.deleteLink(linkID, PromptDeleteFromIndex, ReconcileRemoveRow, nil)
	})
}
