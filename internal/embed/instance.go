package embed

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of an instance.
type State int

const (
	StateLoading State = iota
	StateRendered
	StateError
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateError:
		return "error"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// renderFailedMessage is shown in the error block.
const renderFailedMessage = "Failed to load content"

// Instance is a widget rendered into one container.
type Instance struct {
	cfg       Config
	platform  Platform
	container Element
	logger    zerolog.Logger
	onDestroy func(*Instance)

	ctx    context.Context
	cancel context.CancelFunc
	// wg tracks fetches, tracking calls and a scheduled search.
	wg sync.WaitGroup

	mu          sync.Mutex
	state       State
	current     query
	failed      query
	lastErr     error
	seq         uint64
	viewTracked bool
	debounce    *time.Timer
	debounceGen uint64
	pending     string
	removers    []func()
}

func newInstance(cfg Config, p Platform, container Element, logger zerolog.Logger, onDestroy func(*Instance)) *Instance {
	ctx, cancel := context.WithCancel(context.Background())
	return &Instance{
		cfg:       cfg,
		platform:  p,
		container: container,
		logger:    logger.With().Str("container_id", cfg.ContainerID).Str("widget_id", cfg.WidgetID).Logger(),
		onDestroy: onDestroy,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateLoading,
		current:   query{Page: 1},
	}
}

// start wires delegated listeners and issues the initial render.
func (i *Instance) start() {
	p := i.platform
	i.mu.Lock()
	i.removers = append(i.removers,
		p.Listen(i.container, "click", AttrPage, i.onPageClick),
		p.Listen(i.container, "click", AttrContentID, i.onContentClick),
		p.Listen(i.container, "click", AttrRetry, func(*Event) { i.Retry() }),
		p.Listen(i.container, "input", AttrSearch, i.onSearchInput),
	)
	i.mu.Unlock()

	if i.cfg.Theme != "" {
		p.SetAttribute(i.container, "data-plinth-theme", i.cfg.Theme)
	}
	i.load(func(q query) query { return q })
}

// ContainerID returns the id of the container the instance renders into.
func (i *Instance) ContainerID() string { return i.cfg.ContainerID }

// Config returns the instance configuration.
func (i *Instance) Config() Config { return i.cfg }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Page returns the page of the most recent render request.
func (i *Instance) Page() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current.Page
}

// Err returns the error of the last failed render, or nil once a render
// succeeds.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

// Refresh re-renders the current page and search. Calls are not coalesced:
// every call issues its own request.
func (i *Instance) Refresh() {
	i.load(func(q query) query { return q })
}

// GoToPage renders page n. Pages below 1 render page 1.
func (i *Instance) GoToPage(n int) {
	i.load(func(q query) query {
		q.Page = max(n, 1)
		return q
	})
}

// Search renders the first page of results for text. A pending debounced
// search is cancelled.
func (i *Instance) Search(text string) {
	i.mu.Lock()
	i.stopDebounce()
	i.mu.Unlock()
	i.load(func(query) query { return query{Page: 1, Search: text} })
}

// Retry re-issues the request that failed. It does nothing unless the
// instance is in the error state.
func (i *Instance) Retry() {
	i.mu.Lock()
	if i.state != StateError {
		i.mu.Unlock()
		return
	}
	failed := i.failed
	i.mu.Unlock()
	i.load(func(query) query { return failed })
}

// Destroy removes the instance's style, listeners and markup. It is
// idempotent; a destroyed instance ignores every later call.
func (i *Instance) Destroy() {
	i.mu.Lock()
	if i.state == StateDestroyed {
		i.mu.Unlock()
		return
	}
	i.state = StateDestroyed
	i.stopDebounce()
	removers := i.removers
	i.removers = nil
	i.mu.Unlock()

	i.cancel()
	for _, remove := range removers {
		remove()
	}
	i.platform.RemoveStyle(i.cfg.styleID())
	if err := i.platform.SetInnerHTML(i.container, ""); err != nil {
		i.logger.Warn().Err(err).Msg("failed to clear container")
	}
	if i.onDestroy != nil {
		i.onDestroy(i)
	}
	i.logger.Debug().Msg("widget destroyed")
}

// Wait blocks until in-flight fetches, tracking calls and a scheduled
// search have finished.
func (i *Instance) Wait() {
	i.wg.Wait()
}

// load moves to the loading state and fetches the query next derives from
// the current one.
func (i *Instance) load(next func(query) query) {
	i.mu.Lock()
	if i.state == StateDestroyed {
		i.mu.Unlock()
		return
	}
	q := next(i.current)
	i.current = q
	i.seq++
	seq := i.seq
	i.state = StateLoading
	i.setHTML(loadingMarkup)
	i.wg.Add(1)
	i.mu.Unlock()

	go i.fetch(seq, q)
}

func (i *Instance) fetch(seq uint64, q query) {
	defer i.wg.Done()

	res, err := fetchRender(i.ctx, i.platform, i.cfg.renderURL(q))

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return
	}
	latest := seq == i.seq
	if i.cfg.DiscardStale && !latest {
		i.logger.Debug().Uint64("seq", seq).Uint64("latest", i.seq).Msg("discarding stale render response")
		return
	}

	if err != nil {
		i.state = StateError
		i.failed = q
		i.lastErr = err
		i.logger.Error().Err(err).Int("page", q.Page).Msg("failed to render widget")
		i.setHTML(errorMarkup(renderFailedMessage))
		return
	}

	i.platform.InjectStyle(i.cfg.styleID(), res.CSS)
	i.setHTML(res.HTML)
	i.state = StateRendered
	i.lastErr = nil
	if latest && res.Meta.Page > 0 {
		i.current.Page = res.Meta.Page
	}

	if !i.viewTracked {
		i.viewTracked = true
		i.trackLocked(trackBody{EventType: "view"})
	}
}

func (i *Instance) onPageClick(ev *Event) {
	raw, _ := ev.Target.Attr(AttrPage)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return
	}
	i.GoToPage(n)
}

func (i *Instance) onContentClick(ev *Event) {
	contentID, _ := ev.Target.Attr(AttrContentID)
	href, _ := ev.Target.Attr("href")

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == StateDestroyed {
		return
	}
	if i.cfg.OpenInNewTab {
		i.platform.SetAttribute(ev.Target, "target", "_blank")
		i.platform.SetAttribute(ev.Target, "rel", "noopener noreferrer")
	}
	i.trackLocked(trackBody{EventType: "click", ContentID: contentID, URL: href})
}

// onSearchInput restarts the debounce timer; only the last value typed
// within the window is searched.
func (i *Instance) onSearchInput(ev *Event) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == StateDestroyed {
		return
	}
	i.stopDebounce()
	i.pending = ev.Value
	i.debounceGen++
	gen := i.debounceGen
	i.wg.Add(1)
	i.debounce = time.AfterFunc(i.cfg.SearchDebounce, func() { i.flushSearch(gen) })
}

func (i *Instance) flushSearch(gen uint64) {
	defer i.wg.Done()

	i.mu.Lock()
	if gen != i.debounceGen || i.state == StateDestroyed {
		i.mu.Unlock()
		return
	}
	text := i.pending
	i.debounce = nil
	i.mu.Unlock()

	i.load(func(query) query { return query{Page: 1, Search: text} })
}

// stopDebounce cancels a scheduled search, including one whose timer has
// fired but not yet run. Callers hold i.mu.
func (i *Instance) stopDebounce() {
	if i.debounce != nil && i.debounce.Stop() {
		i.wg.Done()
	}
	i.debounce = nil
	i.debounceGen++
}

// trackLocked sends a tracking event in the background. Callers hold i.mu.
func (i *Instance) trackLocked(body trackBody) {
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if err := postTrack(i.ctx, i.platform, i.cfg.trackURL(), body); err != nil {
			i.logger.Debug().Err(&TrackingError{EventType: body.EventType, Err: err}).Msg("tracking failed")
		}
	}()
}

// setHTML replaces the container markup. Callers hold i.mu.
func (i *Instance) setHTML(markup string) {
	if err := i.platform.SetInnerHTML(i.container, markup); err != nil {
		i.logger.Error().Err(err).Msg("failed to update container")
	}
}
