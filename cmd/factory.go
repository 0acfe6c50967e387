package cmd

import (
	"fmt"

	"github.com/elise-sim/elise/internal/config"
	"github.com/elise-sim/elise/internal/cosched"
	"github.com/elise-sim/elise/internal/heatmap"
	"github.com/elise-sim/elise/internal/rng"
	"github.com/elise-sim/elise/internal/scheduler"
)

// buildScheduler constructs the named policy, wiring co-scheduler-only
// knobs from sc.CoScheduler when name selects a Ranks-style policy.
func buildScheduler(name string, sc config.SchedulersSpec) (scheduler.Scheduler, error) {
	switch name {
	case "fifo":
		return scheduler.NewFIFO(), nil
	case "easy":
		e := scheduler.NewEASY()
		e.Disabled = !sc.BackfillEnabled
		return e, nil
	case "conservative":
		c := scheduler.NewConservative()
		c.Disabled = !sc.BackfillEnabled
		return c, nil
	case "filler-ranks":
		return cosched.NewFillerRanks(coschedConfig(sc)), nil
	case "random-ranks":
		return cosched.NewRandomRanks(coschedConfig(sc), rng.New(sc.CoScheduler.RNGSeed)), nil
	default:
		return nil, fmt.Errorf("unknown scheduler %q; valid options: %v", name, config.RegisteredSchedulerNames())
	}
}

func coschedConfig(sc config.SchedulersSpec) cosched.Config {
	return cosched.Config{
		SpeedupThreshold:  sc.CoScheduler.SpeedupThreshold,
		SystemUtilization: sc.CoScheduler.SystemUtilization,
		AgingEnabled:      sc.CoScheduler.AgingEnabled,
		AgingThreshold:    sc.CoScheduler.AgingThreshold,
	}
}

// loadHeatmapOrEmpty loads path's heatmap, or an empty (all-NotRepresented)
// heatmap when path is unset — a workload with no co-location data simply
// never finds eligible pairings.
func loadHeatmapOrEmpty(path string) (*heatmap.Heatmap, error) {
	if path == "" {
		return heatmap.New(nil), nil
	}
	return heatmap.Load(path)
}
