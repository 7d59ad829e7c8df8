package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const gib = 1024 * 1024 * 1024

// tuningProfile is the GC and scheduling posture for one machine size.
type tuningProfile struct {
	gogc     int
	memLimit int64
	maxProcs int
}

// profileForHost sizes the profile off the CPU count. Quote requests allocate
// sample series and candidate buffers in short bursts, so larger hosts run a
// high GOGC backed by a hard memory limit to keep pauses off the hot path.
func profileForHost() tuningProfile {
	cpus := runtime.NumCPU()
	switch {
	case cpus <= 2:
		// dev-sized box: modest heap, one core left to the OS
		return tuningProfile{gogc: 500, memLimit: 5 * gib / 2, maxProcs: 1}
	case cpus <= 8:
		return tuningProfile{gogc: 800, memLimit: 8 * gib, maxProcs: cpus / 2}
	default:
		return tuningProfile{gogc: 1000, memLimit: 16 * gib, maxProcs: cpus / 2}
	}
}

// InitRuntimeForLowLatency applies the host profile unless the standard env
// vars (GOGC, GOMAXPROCS, GOMEMLIMIT) already override it.
func InitRuntimeForLowLatency() {
	p := profileForHost()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(p.gogc)
		log.Info().Int("GOGC", p.gogc).Msg("[runtime] set GOGC")
	}

	if os.Getenv("GOMAXPROCS") == "" {
		if p.maxProcs < 1 {
			p.maxProcs = 1
		}
		runtime.GOMAXPROCS(p.maxProcs)
		log.Info().
			Int("GOMAXPROCS", p.maxProcs).
			Int("total_cpu", runtime.NumCPU()).
			Msg("[runtime] set GOMAXPROCS")
	}

	// The memory limit is the backstop that makes the high GOGC safe.
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(p.memLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", p.memLimit).
			Msg("[runtime] set memory limit")
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] runtime settings")
}
