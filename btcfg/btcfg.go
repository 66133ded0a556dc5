// Package btcfg holds the small set of process-wide tunables babeltrace2-go
// reads from the environment at init, mirroring the teacher's own
// env-var-driven configuration (e.g. memsys's AIS_MINMEM_PCT_TOTAL) rather
// than a config file or flag-parsing library this spec has no CLI to own
// (spec §1 excludes the CLI front-end).
package btcfg

import (
	"os"
	"strconv"

	"github.com/efficios/babeltrace2-go/cmn/nlog"
)

// Env variable names. LogLevelEnv is the one spec §6 documents by name;
// the rest are implementation tunables in the same spirit.
const (
	LogLevelEnv       = "LIBBABELTRACE2_INIT_LOG_LEVEL"
	PoolCapacityEnv   = "BABELTRACE2_POOL_CAPACITY"
	SerGrowPagesEnv   = "BABELTRACE2_CTFSER_GROW_PAGES"
	SchedBackoffEnv   = "BABELTRACE2_SCHED_AGAIN_BACKOFF_US"
)

type Config struct {
	// PoolCapacity bounds each per-type object pool (spec §4.2).
	PoolCapacity int
	// SerGrowPages is the serializer's packet grow unit, in multiples of
	// the OS page size (spec §4.10's "initial grow unit = page_size * 8").
	SerGrowPages int
	// SchedAgainBackoffUS is run()'s implementation-defined backoff on Again
	// (spec §4.8).
	SchedAgainBackoffUS int
}

var Default = Config{
	PoolCapacity:        256,
	SerGrowPages:        8,
	SchedAgainBackoffUS: 200,
}

// Init parses environment tunables and sets the library's initial log
// level. Setuid/setgid processes ignore LogLevelEnv and start at NONE, per
// spec §6.
func Init() {
	if os.Getuid() != os.Geteuid() || os.Getgid() != os.Getegid() {
		nlog.SetLevel(nlog.LevelNone)
	} else if lvl, ok := os.LookupEnv(LogLevelEnv); ok {
		nlog.SetLevel(parseLevel(lvl))
	}
	if v, ok := os.LookupEnv(PoolCapacityEnv); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			Default.PoolCapacity = n
		}
	}
	if v, ok := os.LookupEnv(SerGrowPagesEnv); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			Default.SerGrowPages = n
		}
	}
	if v, ok := os.LookupEnv(SchedBackoffEnv); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			Default.SchedAgainBackoffUS = n
		}
	}
}

func parseLevel(s string) nlog.Level {
	switch s {
	case "NONE":
		return nlog.LevelNone
	case "FATAL":
		return nlog.LevelFatal
	case "ERROR":
		return nlog.LevelError
	case "WARNING":
		return nlog.LevelWarning
	case "INFO":
		return nlog.LevelInfo
	case "DEBUG":
		return nlog.LevelDebug
	case "TRACE":
		return nlog.LevelTrace
	default:
		return nlog.LevelInfo
	}
}
