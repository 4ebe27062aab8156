// Package nav implements the navigation controller: route resolution, auth
// guards, browser-history synchronization and fragment-load orchestration.
package nav

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/prefs"
	"finance-tracker/internal/session"
	"finance-tracker/internal/storage"
)

// DefaultModalExitDelay bounds the modal exit transition.
const DefaultModalExitDelay = 200 * time.Millisecond

// Options controls a single navigation.
type Options struct {
	// UpdateHistory pushes a new history entry when the path changes.
	// Programmatic restores (boot, pops) leave it false and replace instead.
	UpdateHistory bool
}

// Controller is the navigation state machine. It holds exactly one current
// page and at most one active modal; both are caches reconcilable from
// persisted state after a restart.
type Controller struct {
	routes   map[Page]Route
	loader   FragmentLoader
	history  History
	prefs    prefs.Store
	sessions *session.Service
	db       *storage.DB

	exitDelay time.Duration

	mu      sync.Mutex
	user    *models.User
	current Page
	last    Page
	modal   Page
	seq     uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithModalExitDelay overrides the modal exit transition delay.
func WithModalExitDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.exitDelay = d }
}

// NewController wires the controller to its collaborators and subscribes to
// auth events so the user snapshot stays current. A logout navigates back to
// the landing page.
func NewController(db *storage.DB, sessions *session.Service, store prefs.Store, loader FragmentLoader, history History, opts ...ControllerOption) *Controller {
	c := &Controller{
		routes:    defaultRoutes(),
		loader:    loader,
		history:   history,
		prefs:     store,
		sessions:  sessions,
		db:        db,
		exitDelay: DefaultModalExitDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	sessions.Subscribe(func(e session.Event) {
		switch e.Type {
		case session.EventLogin:
			c.mu.Lock()
			c.user = e.User
			c.mu.Unlock()
		case session.EventLogout:
			c.mu.Lock()
			c.user = nil
			c.mu.Unlock()
			if err := c.NavigateTo(context.Background(), PageLanding, Options{UpdateHistory: true}); err != nil {
				log.Printf("nav: post-logout navigation: %v", err)
			}
		}
	})
	return c
}

// CurrentPage returns the current page.
func (c *Controller) CurrentPage() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// LastPage returns the page that was current before the latest transition.
func (c *Controller) LastPage() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// ActiveModal returns the open modal, or "" when none is open.
func (c *Controller) ActiveModal() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal
}

// PageForPath resolves a browser path against the route table, defaulting to
// landing when nothing matches.
func (c *Controller) PageForPath(path string) Page {
	for page, r := range c.routes {
		if r.Kind == KindPage && r.Path == path {
			return page
		}
	}
	return PageLanding
}

// guardLocked applies the auth guard. It returns the page to redirect to and
// whether access was denied. Callers must hold c.mu.
func (c *Controller) guardLocked(page Page) (Page, bool) {
	if authRequired[page] && c.user == nil {
		return PageLanding, true
	}
	if anonOnly[page] && c.user != nil {
		return PageDashboard, true
	}
	return page, false
}

// NavigateTo transitions to a page. Unknown pages fall back to landing,
// denied pages redirect per the auth guard, modals delegate to OpenModal,
// and re-navigating to the current page is a no-op. Within one call history
// mutation happens before the fragment load, which happens before the
// current-page update; a load that finishes after a newer navigation started
// is discarded.
func (c *Controller) NavigateTo(ctx context.Context, page Page, opts Options) error {
	c.mu.Lock()
	route, ok := c.routes[page]
	if !ok {
		page = PageLanding
		route = c.routes[PageLanding]
	}
	if route.Kind == KindPage && page == c.current {
		c.mu.Unlock()
		return nil
	}
	if fallback, denied := c.guardLocked(page); denied {
		page = fallback
		route = c.routes[page]
		if page == c.current {
			c.mu.Unlock()
			return nil
		}
	}
	if route.Kind == KindModal {
		c.mu.Unlock()
		return c.OpenModal(ctx, page)
	}
	modalOpen := c.modal != ""
	c.mu.Unlock()

	// Pages and modals are mutually exclusive in the visible UI.
	if modalOpen {
		if err := c.CloseModal(ctx); err != nil {
			log.Printf("nav: close modal before navigation: %v", err)
		}
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	prev := c.current
	state := string(page)
	if opts.UpdateHistory && c.history.Path() != route.Path {
		c.history.Push(route.Path, state)
	} else {
		c.history.Replace(route.Path, state)
	}
	user := c.user
	c.mu.Unlock()

	if user != nil {
		p := string(page)
		if err := c.db.SetLastPage(user.ID, &p); err != nil {
			log.Printf("nav: persist last page: %v", err)
		}
	} else {
		c.prefs.Set(prefs.KeyLastPage, string(page))
	}

	if err := c.loader.Load(ctx, route.URL, route.Container); err != nil {
		log.Printf("nav: load %s: %v", route.URL, err)
		return err
	}

	c.mu.Lock()
	if seq == c.seq {
		c.last = prev
		c.current = page
	}
	c.mu.Unlock()
	return nil
}

// OpenModal loads a modal fragment into the modal container. Neither the
// current page nor history changes.
func (c *Controller) OpenModal(ctx context.Context, page Page) error {
	c.mu.Lock()
	route, ok := c.routes[page]
	if !ok || route.Kind != KindModal {
		c.mu.Unlock()
		return fmt.Errorf("nav: %q is not a modal", page)
	}
	if fallback, denied := c.guardLocked(page); denied {
		c.mu.Unlock()
		return c.NavigateTo(ctx, fallback, Options{UpdateHistory: true})
	}
	if c.modal == page {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.loader.Load(ctx, route.URL, route.Container); err != nil {
		log.Printf("nav: load modal %s: %v", route.URL, err)
		return err
	}

	c.mu.Lock()
	c.modal = page
	c.mu.Unlock()
	return nil
}

// CloseModal plays the exit transition, then clears the modal container and
// the active-modal marker. A no-op when no modal is open.
func (c *Controller) CloseModal(ctx context.Context) error {
	c.mu.Lock()
	if c.modal == "" {
		c.mu.Unlock()
		return nil
	}
	container := c.routes[c.modal].Container
	delay := c.exitDelay
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	c.loader.Clear(container)
	c.mu.Lock()
	c.modal = ""
	c.mu.Unlock()
	return nil
}

// Boot renders the initial page for the given browser path without pushing
// history, resolves the stored session, and — when a user resolves —
// restores their persisted last page, falling back to the dashboard when
// that page is gone or invalid.
func (c *Controller) Boot(ctx context.Context, path string) error {
	page := c.PageForPath(path)
	if err := c.NavigateTo(ctx, page, Options{}); err != nil {
		log.Printf("nav: initial render: %v", err)
	}

	u := c.sessions.CurrentUser()
	if u == nil {
		return nil
	}
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()

	target := PageDashboard
	if u.LastPage != nil {
		if r, ok := c.routes[Page(*u.LastPage)]; ok && r.Kind == KindPage {
			target = Page(*u.LastPage)
		}
	}
	return c.NavigateTo(ctx, target, Options{})
}

// HandlePop reacts to a browser history pop. The target page is re-derived
// from the entry's state; guard-denied pages fall back to the dashboard for
// authenticated users and landing otherwise, handled by NavigateTo.
func (c *Controller) HandlePop(ctx context.Context, state string) error {
	page := Page(state)
	if r, ok := c.routes[page]; !ok || r.Kind != KindPage {
		page = PageLanding
	}
	return c.NavigateTo(ctx, page, Options{})
}
