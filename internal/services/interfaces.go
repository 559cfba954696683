package services

import "context"

type Scanner interface {
	ScanAll(ctx context.Context, req ScanRequest) ScanResult
}

type Deleter interface {
	Delete(ctx context.Context, req DeleteRequest) DeleteResult
}
