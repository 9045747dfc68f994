package health

import (
	"context"
	"fmt"

	"github.com/unalkalkan/PaperSlides/internal/storage"
)

// StorageCheck probes the storage adapter with an existence lookup
func StorageCheck(adapter storage.Adapter) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := adapter.Exists(ctx, ".healthcheck"); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// AnalyzerCheck reports degraded when the active analyzer is the offline stub
func AnalyzerCheck(names func() []string, offline bool) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		registered := names()
		if len(registered) == 0 {
			return StatusUnhealthy, fmt.Errorf("no content analyzer registered")
		}
		if offline {
			return StatusDegraded, fmt.Errorf("using the offline stub analyzer")
		}
		return StatusHealthy, nil
	}
}
