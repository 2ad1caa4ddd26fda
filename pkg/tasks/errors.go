package tasks

import "github.com/lookatitude/orchestrator-core/pkg/orcherr"

func errNotFound(op, id string) error {
	return orcherr.NotFound(op, "unknown task id "+id)
}

func errIllegalTransition(op string, from, to Status) error {
	return orcherr.IllegalTransition(op, "cannot transition from "+string(from)+" to "+string(to))
}
