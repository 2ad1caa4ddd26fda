package orchestrator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
)

// translateValidation turns go-playground/validator's field errors into a
// single orcherr.Validation instead of leaking a third-party error type
// across the facade boundary.
func translateValidation(op string, err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return orcherr.Validation(op, err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return orcherr.Validation(op, strings.Join(fields, "; "))
}
