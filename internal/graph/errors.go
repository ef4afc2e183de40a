package graph

import (
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"country-atlas-service/internal/apperr"
)

// codedError exposes the error class to clients as extensions.code.
type codedError struct {
	err  error
	code string
}

var _ gqlerrors.ExtendedError = (*codedError)(nil)

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func coded(err error) error {
	if err == nil {
		return nil
	}
	return &codedError{err: err, code: apperr.Code(err)}
}

// ErrorCodes lists the extension code of every error in res, in order.
// Resolver errors without a code are INTERNAL. Errors raised by the engine
// itself (syntax, validation, variable coercion) have no underlying cause and
// are reported as BAD_USER_INPUT.
func ErrorCodes(res *graphql.Result) []string {
	codes := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		code, _ := e.Extensions["code"].(string)
		if code == "" {
			code = apperr.CodeInvalidArgument
			if hasCause(e) {
				code = apperr.CodeInternal
			}
		}
		codes = append(codes, code)
	}
	return codes
}

func hasCause(e gqlerrors.FormattedError) bool {
	orig := e.OriginalError()
	var located *gqlerrors.Error
	if errors.As(orig, &located) {
		return located.OriginalError != nil
	}
	return orig != nil
}
