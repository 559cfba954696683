package services

type ScanRequest struct {
	Roots     []string `json:"roots"`
	AgeMonths float64  `json:"ageMonths"`
}

type DeleteRequest struct {
	Paths    []string `json:"paths"`
	SafeMode bool     `json:"safeMode"`
}
