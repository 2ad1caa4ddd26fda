package workflow

import "github.com/lookatitude/orchestrator-core/pkg/orcherr"

func errNotFound(op, id string) error {
	return orcherr.NotFound(op, "workflow not found: "+id)
}

func errIllegalTransition(op string, from, to Status) error {
	return orcherr.IllegalTransition(op, "cannot move workflow from "+string(from)+" to "+string(to))
}

func errShuttingDown(op string) error {
	return orcherr.Cancelled(op, "engine is shutting down")
}
