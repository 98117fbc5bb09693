package dsl

import "fmt"

// ComputeBlockState reports whether a task is blocked and why. Reasons:
// "explicit", "missing dependency [<id>]", "waiting on [<id>]", or "" when
// not blocked. The first blocking dependency in stored order wins.
func ComputeBlockState(t *Task, byID map[string]*Task) (bool, string) {
	if t.BlockedExplicit {
		return true, "explicit"
	}
	for _, depID := range t.Dependencies {
		dep, ok := byID[depID]
		if !ok {
			// Missing dep is conservatively treated as blocking.
			return true, fmt.Sprintf("missing dependency [%s]", depID)
		}
		if dep.Status != StatusDone {
			return true, fmt.Sprintf("waiting on [%s]", depID)
		}
	}
	return false, ""
}

// IsBlocked is the boolean form of ComputeBlockState.
func IsBlocked(t *Task, byID map[string]*Task) bool {
	blocked, _ := ComputeBlockState(t, byID)
	return blocked
}
