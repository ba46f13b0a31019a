// Package keybinds maps key presses to TUI actions per focus context.
// Defaults can be overridden with a keybinds.json file.
package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal      Context = "global"      // Available everywhere
	ContextEditor      Context = "editor"      // URL line focused; unbound keys are typed
	ContextResponse    Context = "response"    // Response pane focused
	ContextHistory     Context = "history"     // History pane focused
	ContextCollections Context = "collections" // Collections pane focused
)

// Contexts lists every context in lookup order after global
var Contexts = []Context{ContextGlobal, ContextEditor, ContextResponse, ContextHistory, ContextCollections}

const (
	// Global actions
	ActionQuit              Action = "quit"
	ActionSend              Action = "send"
	ActionNewTab            Action = "new_tab"
	ActionCloseTab          Action = "close_tab"
	ActionNextTab           Action = "next_tab"
	ActionPrevTab           Action = "prev_tab"
	ActionDuplicateTab      Action = "duplicate_tab"
	ActionCycleMethod       Action = "cycle_method"
	ActionClearResponse     Action = "clear_response"
	ActionCopyBody          Action = "copy_body"
	ActionToggleHeaders     Action = "toggle_headers"
	ActionToggleHistory     Action = "toggle_history"
	ActionToggleCollections Action = "toggle_collections"
	ActionSwitchFocus       Action = "switch_focus"

	// Navigation actions
	ActionNavigateUp   Action = "navigate_up"
	ActionNavigateDown Action = "navigate_down"
	ActionPageUp       Action = "page_up"
	ActionPageDown     Action = "page_down"
	ActionGoToTop      Action = "go_to_top"
	ActionGoToBottom   Action = "go_to_bottom"

	// Pane actions
	ActionOpen             Action = "open"
	ActionToggleStar       Action = "toggle_star"
	ActionDelete           Action = "delete"
	ActionCycleGrouping    Action = "cycle_grouping"
	ActionStarredOnly      Action = "starred_only"
	ActionSaveToCollection Action = "save_to_collection"
	ActionNewCollection    Action = "new_collection"
	ActionClosePane        Action = "close_pane"
)

// ActionInfo contains metadata about an action
type ActionInfo struct {
	Action      Action
	Description string
	Category    string
}

var actionInfos = map[Action]ActionInfo{
	ActionQuit:              {ActionQuit, "Quit", "Global"},
	ActionSend:              {ActionSend, "Send request", "Request"},
	ActionNewTab:            {ActionNewTab, "New tab", "Tabs"},
	ActionCloseTab:          {ActionCloseTab, "Close tab", "Tabs"},
	ActionNextTab:           {ActionNextTab, "Next tab", "Tabs"},
	ActionPrevTab:           {ActionPrevTab, "Previous tab", "Tabs"},
	ActionDuplicateTab:      {ActionDuplicateTab, "Duplicate tab", "Tabs"},
	ActionCycleMethod:       {ActionCycleMethod, "Next HTTP method", "Request"},
	ActionClearResponse:     {ActionClearResponse, "Clear response", "Response"},
	ActionCopyBody:          {ActionCopyBody, "Copy body to clipboard", "Response"},
	ActionToggleHeaders:     {ActionToggleHeaders, "Toggle headers", "Response"},
	ActionToggleHistory:     {ActionToggleHistory, "History pane", "Panes"},
	ActionToggleCollections: {ActionToggleCollections, "Collections pane", "Panes"},
	ActionSwitchFocus:       {ActionSwitchFocus, "Switch focus", "Panes"},
	ActionNavigateUp:        {ActionNavigateUp, "Move up", "Navigation"},
	ActionNavigateDown:      {ActionNavigateDown, "Move down", "Navigation"},
	ActionPageUp:            {ActionPageUp, "Page up", "Navigation"},
	ActionPageDown:          {ActionPageDown, "Page down", "Navigation"},
	ActionGoToTop:           {ActionGoToTop, "Go to top", "Navigation"},
	ActionGoToBottom:        {ActionGoToBottom, "Go to bottom", "Navigation"},
	ActionOpen:              {ActionOpen, "Open in new tab", "Panes"},
	ActionToggleStar:        {ActionToggleStar, "Star / unstar", "History"},
	ActionDelete:            {ActionDelete, "Delete", "Panes"},
	ActionCycleGrouping:     {ActionCycleGrouping, "Group by time / domain", "History"},
	ActionStarredOnly:       {ActionStarredOnly, "Starred only", "History"},
	ActionSaveToCollection:  {ActionSaveToCollection, "Save tab to collection", "Collections"},
	ActionNewCollection:     {ActionNewCollection, "New collection", "Collections"},
	ActionClosePane:         {ActionClosePane, "Close pane", "Panes"},
}

// GetActionInfo returns human-readable information about an action
func GetActionInfo(action Action) ActionInfo {
	if info, ok := actionInfos[action]; ok {
		return info
	}
	return ActionInfo{action, string(action), "Unknown"}
}

// IsKnownAction reports whether action has a handler
func IsKnownAction(action Action) bool {
	_, ok := actionInfos[action]
	return ok
}
