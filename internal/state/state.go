package state

import (
	"nmsweep/internal/config"
	"nmsweep/internal/domain"
	"nmsweep/internal/services"
)

// Phase is the step of a scan, select, confirm, delete session.
type Phase int

const (
	PhaseAge Phase = iota
	PhaseScanning
	PhaseSelect
	PhaseConfirm
	PhaseDeleting
	PhaseDone
)

func (phase Phase) String() string {
	switch phase {
	case PhaseAge:
		return "age"
	case PhaseScanning:
		return "scanning"
	case PhaseSelect:
		return "select"
	case PhaseConfirm:
		return "confirm"
	case PhaseDeleting:
		return "deleting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

type Preferences struct {
	SafeMode bool
	Theme    string
}

type State struct {
	Roots     []string
	AgeMonths float64
	LastAge   float64
	Phase     Phase
	Matches   domain.MatchList
	Cursor    int
	Selected  map[string]bool
	Prefs     Preferences

	Visited     int64
	CurrentPath string

	Reclaimed int64
	Deleted   []string
	Failed    []string
}

// NewState starts at the age prompt unless the config already carries a
// valid age cap.
func NewState(cfg config.Config, roots []string) *State {
	appState := &State{
		Roots:     roots,
		AgeMonths: cfg.AgeMonths,
		LastAge:   cfg.LastAge,
		Phase:     PhaseAge,
		Selected:  make(map[string]bool),
		Prefs: Preferences{
			SafeMode: cfg.SafeMode,
			Theme:    cfg.Theme,
		},
	}
	if config.ValidateAgeMonths(cfg.AgeMonths) == nil {
		appState.Phase = PhaseScanning
	}
	return appState
}

func (appState *State) ScanRequest() services.ScanRequest {
	return services.ScanRequest{
		Roots:     append([]string{}, appState.Roots...),
		AgeMonths: appState.AgeMonths,
	}
}

func (appState *State) DeleteRequest() services.DeleteRequest {
	return services.DeleteRequest{
		Paths:    appState.SelectedPaths(),
		SafeMode: appState.Prefs.SafeMode,
	}
}

func (appState *State) SetMatches(matches domain.MatchList) {
	appState.Matches = matches
	appState.Cursor = 0
	appState.Selected = make(map[string]bool)
}

func (appState *State) RecordProgress(progress services.ScanProgress) {
	appState.Visited = progress.Visited
	appState.CurrentPath = progress.Current
}

func (appState *State) RecordDeletion(result services.DeleteResult) {
	appState.Reclaimed = result.BytesReclaimed
	appState.Deleted = result.Deleted
	appState.Failed = result.Failed
}

func (appState *State) CurrentMatch() *domain.Match {
	if appState.Cursor < 0 || appState.Cursor >= len(appState.Matches) {
		return nil
	}
	return &appState.Matches[appState.Cursor]
}

func (appState *State) MoveCursor(delta int) {
	if len(appState.Matches) == 0 {
		appState.Cursor = 0
		return
	}
	cursor := appState.Cursor + delta
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(appState.Matches)-1 {
		cursor = len(appState.Matches) - 1
	}
	appState.Cursor = cursor
}

func (appState *State) ToggleSelection(path string) {
	if path == "" {
		return
	}
	appState.Selected[path] = !appState.Selected[path]
	if !appState.Selected[path] {
		delete(appState.Selected, path)
	}
}

func (appState *State) ToggleCurrent() {
	if match := appState.CurrentMatch(); match != nil {
		appState.ToggleSelection(match.Path)
	}
}

// ToggleAll selects every match, or clears the selection when everything is
// already selected.
func (appState *State) ToggleAll() {
	if len(appState.Selected) == len(appState.Matches) {
		appState.Selected = make(map[string]bool)
		return
	}
	for _, match := range appState.Matches {
		appState.Selected[match.Path] = true
	}
}

func (appState *State) SelectionSummary() int {
	return len(appState.Selected)
}

// SelectedPaths lists selected matches in discovery order.
func (appState *State) SelectedPaths() []string {
	paths := make([]string, 0, len(appState.Selected))
	for _, match := range appState.Matches {
		if appState.Selected[match.Path] {
			paths = append(paths, match.Path)
		}
	}
	return paths
}
