package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agozel5/Honeypot/internal/render"
)

// Messages the controller side sends into the program.
type (
	snapshotMsg render.Snapshot

	confirmMsg struct {
		prompt string
		reply  chan bool
	}

	noticeMsg struct {
		text  string
		reply chan struct{}
	}

	// RefreshIntervalMsg tells the model the auto-refresh period changed
	// outside the UI, e.g. after a config reload.
	RefreshIntervalMsg time.Duration
)

// Bridge turns the controller's blocking prompts into modal dialogs. The
// calling goroutine waits until the operator answers or ctx ends.
type Bridge struct {
	ctx context.Context

	mu   sync.Mutex
	send func(tea.Msg)
}

func NewBridge(ctx context.Context) *Bridge {
	return &Bridge{ctx: ctx}
}

// Attach routes prompts to p. Prompts raised before Attach are declined.
func (b *Bridge) Attach(p *tea.Program) {
	b.attach(p.Send)
}

func (b *Bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

// Watch forwards every change of t to the program.
func (b *Bridge) Watch(t *render.Table) {
	t.OnChange(func(s render.Snapshot) {
		if send := b.sender(); send != nil {
			send(snapshotMsg(s))
		}
	})
}

// Confirm shows prompt as a yes/no dialog.
func (b *Bridge) Confirm(prompt string) bool {
	send := b.sender()
	if send == nil {
		return false
	}
	reply := make(chan bool, 1)
	send(confirmMsg{prompt: prompt, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-b.ctx.Done():
		return false
	}
}

// Notify shows msg until the operator dismisses it.
func (b *Bridge) Notify(msg string) {
	send := b.sender()
	if send == nil {
		return
	}
	reply := make(chan struct{})
	send(noticeMsg{text: msg, reply: reply})
	select {
	case <-reply:
	case <-b.ctx.Done():
	}
}

func (b *Bridge) sender() func(tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send
}
