package atlas

import (
	"log"
	"runtime"
)

// DefaultMemoryPressurePercent is the fraction of total RAM at which an
// Atlas should start being conservative about keeping tile grids resident.
const DefaultMemoryPressurePercent = 0.90

// computeMemoryLimit returns the advisory ceiling, in bytes, an Atlas should
// keep its loaded tile grids under. It takes a fraction of total system RAM
// and subtracts current Go heap overhead plus a fixed headroom so the
// process leaves room for the render worker pool and output encoder.
//
// Returns 0 if RAM detection fails or the computed limit is unreasonably
// small; callers should treat 0 as "no budget enforced".
func computeMemoryLimit(fraction float64, verbose bool) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("atlas: cannot detect system RAM: %v; memory budget disabled", err)
		}
		return 0
	}

	if verbose {
		log.Printf("atlas: system RAM: %.1f GB", float64(totalRAM)/(1024*1024*1024))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 2*1024*1024*1024

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 512*1024*1024 {
		if verbose {
			log.Printf("atlas: computed memory limit too small (%.0f MB); budget disabled",
				float64(limit)/(1024*1024))
		}
		return 0
	}

	if verbose {
		log.Printf("atlas: tile memory budget: %.1f GB (%.0f%% of RAM minus %.1f GB overhead)",
			float64(limit)/(1024*1024*1024), fraction*100, float64(overhead)/(1024*1024*1024))
	}

	return limit
}
