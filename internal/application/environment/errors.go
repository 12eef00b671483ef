package environment

import (
	stderrors "errors"
	"fmt"

	"github.com/turtacn/chemenv/internal/domain/pattern"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
)

// patternError turns a core failure into an AppError carrying the reason's
// code, with the offending fragment and position in Detail.
func patternError(err error) error {
	var pe *pattern.ParseError
	if stderrors.As(err, &pe) {
		return errors.Wrap(err, errors.GetCode(pe.Reason), reasonMessage(pe.Reason)).
			WithDetail(fmt.Sprintf("%q at position %d", pe.Fragment, pe.Pos))
	}
	var de *pattern.DecoratorError
	if stderrors.As(err, &de) {
		return errors.Wrap(err, errors.GetCode(de.Reason), reasonMessage(de.Reason)).WithDetail(de.Token)
	}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		if error(ae) == err {
			return err
		}
		return errors.Wrap(err, ae.Code, ae.Message).WithDetail(err.Error())
	}
	return errors.Wrap(err, errors.ErrCodeInternal, "pattern operation failed")
}

func reasonMessage(reason error) string {
	var ae *errors.AppError
	if stderrors.As(reason, &ae) {
		return ae.Message
	}
	return errors.DefaultMessageForCode(errors.ErrCodePatternParseFailed)
}

func componentNotFound(kind pattern.ComponentKind, what string) *errors.AppError {
	return errors.New(errors.ErrCodePatternComponentNotFound, "no "+kind.String()+" matches").WithDetail(what)
}

// ErrorDetail renders err for API payloads. Codes are kept; anything that is
// not an AppError becomes an internal error.
func ErrorDetail(err error) *common.ErrorDetail {
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		return &common.ErrorDetail{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	}
	return &common.ErrorDetail{
		Code:    string(errors.ErrCodeInternal),
		Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
	}
}

//Personal.AI order the ending
