package orchestrator

import (
	"github.com/nao1215/arcrack/internal/generator"
	"github.com/nao1215/arcrack/internal/model"
)

const (
	smallFileSize = 1 << 20
	largeFileSize = 100 << 20

	// smallFileDateCap and largeFileDateFloor bound the date mode cap after
	// the file-size adjustment.
	smallFileDateCap   = 20000
	largeFileDateFloor = 5000

	// speedCeiling caps every mode under the speed policy.
	speedCeiling = 8000

	// thoroughFloor is the minimum cap of every mode under the thorough policy.
	thoroughFloor = 20000

	// earlyExitThreshold is the social-mode output below which the speed
	// policy gives up on the remaining modes.
	earlyExitThreshold = 100
)

// priorityTables maps each policy to its mode order.
var priorityTables = map[model.Priority][]string{
	model.PrioritySpeed: {
		generator.ModeSocial, generator.ModeLearned, generator.ModeDate,
		generator.ModeKeyboard, generator.ModeDictionary, generator.ModeNeural,
	},
	model.PriorityBalanced: {
		generator.ModeLearned, generator.ModeDate, generator.ModeSocial,
		generator.ModeKeyboard, generator.ModeDictionary, generator.ModeNeural,
	},
	model.PriorityThorough: {
		generator.ModeLearned, generator.ModeKeyboard, generator.ModeDate,
		generator.ModeSocial, generator.ModeDictionary, generator.ModeNeural,
	},
}

// PriorityOrder returns the mode order of a policy. Unknown policies use
// the balanced order.
func PriorityOrder(p model.Priority) []string {
	order, ok := priorityTables[p]
	if !ok {
		order = priorityTables[model.PriorityBalanced]
	}
	return append([]string(nil), order...)
}

// TuneLimits computes the candidate cap of every mode for one job.
//
// base holds each mode's configured cap. The date mode is resized from
// maxPerMode by archive size: below 1MB it becomes min(20000, 1.5×max),
// above 100MB max(5000, 0.5×max). The policy is applied last: speed caps
// every mode at 8000 and thorough raises every mode to at least 20000.
func TuneLimits(p model.Priority, fileSize int64, maxPerMode int, base map[string]int) map[string]int {
	limits := make(map[string]int, len(base))
	for name, n := range base {
		limits[name] = n
	}

	if _, ok := limits[generator.ModeDate]; ok && fileSize > 0 {
		switch {
		case fileSize < smallFileSize:
			limits[generator.ModeDate] = min(smallFileDateCap, maxPerMode*3/2)
		case fileSize > largeFileSize:
			limits[generator.ModeDate] = max(largeFileDateFloor, maxPerMode/2)
		}
	}

	switch p {
	case model.PrioritySpeed:
		for name, n := range limits {
			limits[name] = min(n, speedCeiling)
		}
	case model.PriorityThorough:
		for name, n := range limits {
			limits[name] = max(n, thoroughFloor)
		}
	}
	return limits
}

// shouldStop reports whether the run ends early after res.
func shouldStop(p model.Priority, res model.ModeResult) bool {
	return p == model.PrioritySpeed &&
		res.Mode == generator.ModeSocial &&
		!res.Success &&
		res.CandidatesGenerated < earlyExitThreshold
}
