package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerResponseBindings(r)
	registerHistoryBindings(r)
	registerCollectionsBindings(r)

	return r
}

// registerGlobalBindings only uses chords, so they work while typing a URL
func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuit)
	r.Register(ContextGlobal, "enter", ActionSend)
	r.Register(ContextGlobal, "ctrl+t", ActionNewTab)
	r.Register(ContextGlobal, "ctrl+w", ActionCloseTab)
	r.Register(ContextGlobal, "ctrl+n", ActionNextTab)
	r.Register(ContextGlobal, "ctrl+p", ActionPrevTab)
	r.Register(ContextGlobal, "ctrl+d", ActionDuplicateTab)
	r.Register(ContextGlobal, "ctrl+x", ActionCycleMethod)
	r.Register(ContextGlobal, "ctrl+l", ActionClearResponse)
	r.Register(ContextGlobal, "ctrl+y", ActionCopyBody)
	r.Register(ContextGlobal, "ctrl+g", ActionToggleHeaders)
	r.Register(ContextGlobal, "ctrl+r", ActionToggleHistory)
	r.Register(ContextGlobal, "ctrl+o", ActionToggleCollections)
	r.RegisterMultiple(ContextGlobal, []string{"tab", "shift+tab"}, ActionSwitchFocus)
}

func registerNavigation(r *Registry, context Context) {
	r.RegisterMultiple(context, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(context, []string{"down", "j"}, ActionNavigateDown)
	r.Register(context, "pgup", ActionPageUp)
	r.Register(context, "pgdown", ActionPageDown)
	r.RegisterMultiple(context, []string{"home", "g"}, ActionGoToTop)
	r.RegisterMultiple(context, []string{"end", "G"}, ActionGoToBottom)
}

func registerResponseBindings(r *Registry) {
	registerNavigation(r, ContextResponse)
	r.Register(ContextResponse, "q", ActionQuit)
	r.Register(ContextResponse, "y", ActionCopyBody)
	r.Register(ContextResponse, "h", ActionToggleHeaders)
}

func registerHistoryBindings(r *Registry) {
	registerNavigation(r, ContextHistory)
	r.Register(ContextHistory, "enter", ActionOpen)
	r.Register(ContextHistory, "s", ActionToggleStar)
	r.RegisterMultiple(ContextHistory, []string{"d", "delete"}, ActionDelete)
	r.Register(ContextHistory, "v", ActionCycleGrouping)
	r.Register(ContextHistory, "*", ActionStarredOnly)
	r.Register(ContextHistory, "esc", ActionClosePane)
}

func registerCollectionsBindings(r *Registry) {
	registerNavigation(r, ContextCollections)
	r.Register(ContextCollections, "enter", ActionOpen)
	r.Register(ContextCollections, "a", ActionSaveToCollection)
	r.Register(ContextCollections, "n", ActionNewCollection)
	r.RegisterMultiple(ContextCollections, []string{"d", "delete"}, ActionDelete)
	r.Register(ContextCollections, "esc", ActionClosePane)
}
