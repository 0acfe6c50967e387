package config

import (
	"os"
	"strconv"
)

// RunOptions is the run's full environment-derived configuration,
// resolved once by the CLI layer and threaded down explicitly from there.
// Nothing below cmd/ may call os.Getenv directly: a single immutable
// value replaces env lookups scattered across the call stack.
type RunOptions struct {
	Report     bool
	Progress   bool
	Time       bool
	Profiling  bool
	WorkingDir string
}

// RunOptionsFromEnv builds a RunOptions from ELiSE_REPORT, ELiSE_PROGRESS,
// ELiSE_TIME, ELiSE_PROFILING, and ELiSE_WORKINGDIR. Unset or unparseable
// boolean variables default to false; ELiSE_WORKINGDIR defaults to ".".
func RunOptionsFromEnv() RunOptions {
	return RunOptions{
		Report:     envBool("ELiSE_REPORT"),
		Progress:   envBool("ELiSE_PROGRESS"),
		Time:       envBool("ELiSE_TIME"),
		Profiling:  envBool("ELiSE_PROFILING"),
		WorkingDir: envString("ELiSE_WORKINGDIR", "."),
	}
}

func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}
