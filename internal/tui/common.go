package tui

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewStats
	viewSettings
)

var viewNames = []string{"Timer", "Stats", "Settings"}

// --- Messages ---

// tickMsg carries the scheduler generation that requested it.
type tickMsg struct {
	gen uint64
}

type fadeDoneMsg struct {
	seq int
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}
