package mission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coilpress/muxctl/internal/logging"
	"github.com/coilpress/muxctl/internal/title"
)

// RunStats aggregates one batch's outcome, grounded on the teacher's
// pipeline.RunStats shape (internal/pipeline/stats.go), generalized from
// one counter per file to one counter per expanded title.
type RunStats struct {
	Total     int
	Current   int
	Succeeded int
	Failed    int
}

// MissionFailure pairs a failed title's mission index with its error, so
// a caller can tell which mission in the batch produced it (§7: "C9
// aggregates... and reports to C10. C10 continues with the next
// mission.").
type MissionFailure struct {
	MissionIndex int
	InputPath    string
	Err          error
}

func (f *MissionFailure) Error() string {
	return fmt.Sprintf("mission[%d] (%s): %v", f.MissionIndex, f.InputPath, f.Err)
}

// Run drives every plan through pipe sequentially (§5: "between titles
// scheduling is sequential by default"), logging progress the way the
// teacher's pipeline.Run does. A ConfigError anywhere in plans is the
// caller's responsibility to catch before calling Run — by this point
// everything has already passed Validate.
func Run(ctx context.Context, plans []Plan, pipe *title.Pipeline, log *logging.Logger, failFast bool) (RunStats, []*MissionFailure) {
	stats := RunStats{Total: len(plans)}
	var failures []*MissionFailure

	// Every line this batch produces is tagged with a fresh run id, so
	// concurrent muxctl invocations (and later log review) can tell their
	// output apart even when they share one log file.
	log = log.WithField("run_id", uuid.NewString())

	log.Info("Mission batch: %d title(s) to process", stats.Total)

	for _, p := range plans {
		stats.Current++
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}

		log.Info("[%d/%d] %s", stats.Current, stats.Total, p.Request.InputPath)
		result, err := pipe.Run(ctx, p.Request)
		if err != nil {
			log.Error("mission[%d]: %v", p.MissionIndex, err)
			stats.Failed++
			failures = append(failures, &MissionFailure{MissionIndex: p.MissionIndex, InputPath: p.Request.InputPath, Err: err})
			if failFast {
				log.Error("fail_fast set, aborting remaining missions")
				break
			}
			continue
		}

		log.Success("-> %s", result.OutputPath)
		stats.Succeeded++
	}

	log.Info("Done: %d succeeded, %d failed (of %d)", stats.Succeeded, stats.Failed, stats.Total)
	return stats, failures
}
