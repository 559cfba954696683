package services

import "context"

// MockScanner returns a fixed result without touching the filesystem.
type MockScanner struct {
	Result ScanResult
}

func NewMockScanner(result ScanResult) *MockScanner {
	return &MockScanner{Result: result}
}

func (scanner *MockScanner) ScanAll(ctx context.Context, req ScanRequest) ScanResult {
	if ctx.Err() != nil {
		return ScanResult{}
	}
	return scanner.Result
}

// MockDeleter reports every path as deleted with a fixed size per path.
type MockDeleter struct {
	BytesPerPath int64
}

func NewMockDeleter(bytesPerPath int64) *MockDeleter {
	return &MockDeleter{BytesPerPath: bytesPerPath}
}

func (deleter *MockDeleter) Delete(ctx context.Context, req DeleteRequest) DeleteResult {
	result := DeleteResult{Deleted: []string{}, Failed: []string{}}
	for _, path := range req.Paths {
		if ctx.Err() != nil {
			break
		}
		result.Deleted = append(result.Deleted, path)
		result.BytesReclaimed += deleter.BytesPerPath
	}
	return result
}
