// Package workspace ties the tabs to the network bridge and the stores:
// sends go out through the dispatcher, results come back to the owning
// tab and every completed exchange is recorded.
package workspace

import (
	"context"
	"io"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/analytics"
	"github.com/studiowebux/setu/internal/collections"
	"github.com/studiowebux/setu/internal/config"
	"github.com/studiowebux/setu/internal/events"
	"github.com/studiowebux/setu/internal/executor"
	"github.com/studiowebux/setu/internal/history"
	"github.com/studiowebux/setu/internal/session"
	"github.com/studiowebux/setu/internal/types"
)

// Recorder receives one entry per completed exchange. It is called from
// the send goroutine, not the UI loop.
type Recorder interface {
	Save(analytics.Entry) error
}

// Options wires a Workspace. Dispatcher is required; nil stores are
// replaced by in-memory ones and a nil Recorder disables analytics.
type Options struct {
	Dispatcher  session.Dispatcher
	History     *history.Store
	Collections *collections.Store
	Recorder    Recorder
	Bus         *events.Bus
	Logger      *log.Logger
	Now         func() time.Time
}

type Workspace struct {
	tabs        *session.Manager
	history     *history.Store
	collections *collections.Store
	dispatcher  session.Dispatcher
	recorder    Recorder
	bus         *events.Bus
	logger      *log.Logger
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) *Workspace {
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.History == nil {
		opts.History = history.Open("", history.WithPublisher(opts.Bus), history.WithLogger(opts.Logger))
	}
	if opts.Collections == nil {
		opts.Collections = collections.Open("", collections.WithPublisher(opts.Bus), collections.WithLogger(opts.Logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Workspace{
		tabs:        session.NewManager(opts.Bus),
		history:     opts.History,
		collections: opts.Collections,
		dispatcher:  opts.Dispatcher,
		recorder:    opts.Recorder,
		bus:         opts.Bus,
		logger:      opts.Logger,
		now:         opts.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Open builds a workspace over the files in config.DataDir. Analytics that
// fail to open are logged and left disabled.
func Open(settings config.Settings, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Default()
	}
	bus := events.NewBus()

	bridgeOpts := []executor.Option{
		executor.WithTimeout(settings.RequestTimeout),
		executor.WithLogger(logger),
	}
	if settings.UserAgent != "" {
		bridgeOpts = append(bridgeOpts, executor.WithUserAgent(settings.UserAgent))
	}

	opts := Options{
		Dispatcher: executor.NewBridge(bridgeOpts...),
		History: history.Open(config.HistoryFile,
			history.WithMaxEntries(settings.HistoryMaxEntries),
			history.WithPublisher(bus),
			history.WithLogger(logger),
		),
		Collections: collections.Open(config.CollectionsFile,
			collections.WithPublisher(bus),
			collections.WithLogger(logger),
		),
		Bus:    bus,
		Logger: logger,
	}

	if settings.AnalyticsEnabled {
		manager, err := analytics.NewManager(config.DatabasePath)
		if err != nil {
			logger.Printf("analytics disabled: %v", err)
		} else {
			opts.Recorder = manager
		}
	}

	return New(opts)
}

// Cancel aborts every in-flight send. Their results still arrive, as
// network errors.
func (w *Workspace) Cancel() { w.cancel() }

// Close cancels in-flight sends and releases the analytics database
func (w *Workspace) Close() error {
	w.cancel()
	if c, ok := w.recorder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (w *Workspace) Tabs() *session.Manager { return w.tabs }

func (w *Workspace) History() *history.Store { return w.history }

func (w *Workspace) Collections() *collections.Store { return w.collections }

// Subscribe registers fn for every change notification
func (w *Workspace) Subscribe(fn func(events.Event)) func() {
	return w.bus.Subscribe(fn)
}

// Send starts the active tab's request. The command yields a
// session.ResultMsg to hand back to Complete.
func (w *Workspace) Send() (tea.Cmd, error) {
	return w.SendTab(w.tabs.Active())
}

// SendTab starts the request of the given tab
func (w *Workspace) SendTab(tab *session.Session) (tea.Cmd, error) {
	return w.sendVia(tab, w.dispatcher)
}

// SendTabs starts the requests of tabs with at most parallel exchanges on
// the network at once; parallel <= 0 means no limit. It stops at the first
// tab that refuses to send.
func (w *Workspace) SendTabs(tabs []*session.Session, parallel int) ([]tea.Cmd, error) {
	var d session.Dispatcher = w.dispatcher
	if parallel > 0 {
		d = executor.NewLimiter(w.dispatcher, parallel)
	}

	cmds := make([]tea.Cmd, 0, len(tabs))
	for _, tab := range tabs {
		cmd, err := w.sendVia(tab, d)
		if err != nil {
			return cmds, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (w *Workspace) sendVia(tab *session.Session, d session.Dispatcher) (tea.Cmd, error) {
	cmd, err := tab.Send(w.ctx, d)
	if err != nil {
		return nil, err
	}

	return func() tea.Msg {
		msg := cmd()
		if result, ok := msg.(session.ResultMsg); ok {
			w.record(result)
		}
		return msg
	}, nil
}

func (w *Workspace) record(msg session.ResultMsg) {
	if w.recorder == nil {
		return
	}
	entry := analytics.NewEntry(msg.Request, msg.Result.Response, msg.Result.Err, w.now())
	if err := w.recorder.Save(entry); err != nil {
		w.logger.Printf("failed to record analytics: %v", err)
	}
}

// Complete hands a result to its tab and, when the tab accepts it, adds
// the exchange to history. Results for closed tabs are dropped.
func (w *Workspace) Complete(msg session.ResultMsg) bool {
	tab, ok := w.tabs.ByID(msg.TabID)
	if !ok {
		return false
	}
	if !tab.Complete(msg) {
		return false
	}

	var resp *types.ResponseData
	if msg.Result.Err == nil {
		resp = msg.Result.Response
	}
	w.history.Add(msg.Request, resp)
	return true
}

// OpenHistoryEntry opens a stored exchange in a new tab
func (w *Workspace) OpenHistoryEntry(id uuid.UUID) (*session.Session, bool) {
	entry, ok := w.history.Get(id)
	if !ok {
		return nil, false
	}
	return w.tabs.Open("", entry.Request, entry.Response), true
}

// OpenCollectionItem opens a saved request in a new tab
func (w *Workspace) OpenCollectionItem(collectionID, itemID uuid.UUID) (*session.Session, bool) {
	item, ok := w.collections.Item(collectionID, itemID)
	if !ok {
		return nil, false
	}
	return w.tabs.Open("", item.Request, nil), true
}

// SaveActiveToCollection stores the active tab's request, named after the tab
func (w *Workspace) SaveActiveToCollection(collectionID uuid.UUID) (types.CollectionItem, bool) {
	tab := w.tabs.Active()
	req := tab.Request()
	req.Name = tab.Name()
	return w.collections.AddItem(collectionID, req)
}
