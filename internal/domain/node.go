package domain

import "time"

const (
	TargetDirName = "node_modules"
	HiddenPrefix  = "."
)

// Match is a node_modules directory old enough to be removed.
type Match struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"modTime"`
}

func (match Match) Age(now time.Time) time.Duration {
	return now.Sub(match.ModTime)
}

type MatchList []Match

func (list MatchList) Paths() []string {
	paths := make([]string, 0, len(list))
	for _, match := range list {
		paths = append(paths, match.Path)
	}
	return paths
}
