package services

type ScanProgress struct {
	Root    string `json:"root"`
	Current string `json:"current"`
	Visited int64  `json:"visited"`
	Matches int    `json:"matches"`
}

type DeleteProgress struct {
	Path       string `json:"path"`
	Bytes      int64  `json:"bytes"`
	Processed  int    `json:"processed"`
	Total      int    `json:"total"`
	ErrMessage string `json:"error,omitempty"`
}

// ProgressObserver receives best-effort progress. Sends never block the
// walk, so a slow reader loses events rather than stalling the scan.
type ProgressObserver interface {
	Observe(progress chan<- ScanProgress)
}

type DeleteProgressObserver interface {
	Observe(progress chan<- DeleteProgress)
}
