package worker

import (
	"context"
	"fmt"

	"nmsweep/internal/services"
)

func ScanResultOf(envelope Envelope) (services.ScanResult, error) {
	var result services.ScanResult
	if envelope.Type != TypeDone {
		return result, fmt.Errorf("expected %s, got %s", TypeDone, envelope.Type)
	}
	err := envelope.Decode(&result)
	return result, err
}

func DeleteResultOf(envelope Envelope) (services.DeleteResult, error) {
	var result services.DeleteResult
	if envelope.Type != TypeDone {
		return result, fmt.Errorf("expected %s, got %s", TypeDone, envelope.Type)
	}
	err := envelope.Decode(&result)
	return result, err
}

// RunScan spawns a scan worker and waits for its result.
func RunScan(ctx context.Context, spawner Spawner, req services.ScanRequest, onMessage func(Envelope)) (services.ScanResult, error) {
	handle, err := spawner.Spawn(ctx, KindScan, req)
	if err != nil {
		return services.ScanResult{}, err
	}
	defer handle.Kill()
	done, err := handle.Wait(ctx, onMessage)
	if err != nil {
		return services.ScanResult{}, err
	}
	return ScanResultOf(done)
}

// RunDelete spawns a delete worker and waits for its result.
func RunDelete(ctx context.Context, spawner Spawner, req services.DeleteRequest, onMessage func(Envelope)) (services.DeleteResult, error) {
	handle, err := spawner.Spawn(ctx, KindDelete, req)
	if err != nil {
		return services.DeleteResult{}, err
	}
	defer handle.Kill()
	done, err := handle.Wait(ctx, onMessage)
	if err != nil {
		return services.DeleteResult{}, err
	}
	return DeleteResultOf(done)
}
