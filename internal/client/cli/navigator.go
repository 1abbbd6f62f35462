package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/logging"
)

// View is a screen of the CLI.
type View string

const (
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
)

// Navigator tracks the current view and reacts to session events.
type Navigator struct {
	mu        sync.Mutex
	view      View
	marker    client.SessionReason
	redirects int
	out       io.Writer
	log       logging.Logger
}

func NewNavigator(out io.Writer, log logging.Logger) *Navigator {
	return &Navigator{view: ViewLogin, out: out, log: logging.OrDiscard(log)}
}

func (n *Navigator) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view
}

// Location renders the view the way a router would, marker included.
func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.marker != "" {
		return fmt.Sprintf("/%s?reason=%s", n.view, n.marker)
	}
	return "/" + string(n.view)
}

// Navigate moves to v and drops any pending marker.
func (n *Navigator) Navigate(v View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.view = v
	n.marker = ""
}

// Redirects counts event-driven redirects.
func (n *Navigator) Redirects() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.redirects
}

func (n *Navigator) SessionInvalidated(ctx context.Context, ev client.SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.view == ViewLogin {
		n.log.Debug(ctx, "already on login view, redirect skipped", "reason", string(ev.Reason))
		return
	}

	n.view = ViewLogin
	n.marker = ev.Reason
	n.redirects++

	switch ev.Reason {
	case client.ReasonExpired:
		fmt.Fprintln(n.out, warnPrefix, "Your session has expired. Please log in again.")
	default:
		fmt.Fprintln(n.out, warnPrefix, "Your session was ended by the server. Please log in again.")
	}
}
