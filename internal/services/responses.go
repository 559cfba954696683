package services

import (
	"time"

	"nmsweep/internal/domain"
)

type ScanResult struct {
	Matches  domain.MatchList `json:"matches"`
	Duration time.Duration    `json:"duration"`
}

func (result ScanResult) Empty() bool {
	return len(result.Matches) == 0
}

type DeleteResult struct {
	BytesReclaimed int64         `json:"bytesReclaimed"`
	Deleted        []string      `json:"deleted"`
	Failed         []string      `json:"failed"`
	Errors         []string      `json:"errors,omitempty"`
	Duration       time.Duration `json:"duration"`
}
