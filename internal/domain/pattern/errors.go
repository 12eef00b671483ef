package pattern

import (
	"fmt"

	"github.com/turtacn/chemenv/pkg/errors"
)

// Reasons carried by ParseError and DecoratorError. They are comparable with
// errors.Is and expose their ErrorCode through errors.GetCode.
var (
	ErrEmptyPattern      = errors.New(errors.ErrCodePatternEmpty, "pattern is empty")
	ErrUnbalancedBracket = errors.New(errors.ErrCodePatternParseFailed, "unbalanced bracket")
	ErrUnbalancedParen   = errors.New(errors.ErrCodePatternParseFailed, "unbalanced parenthesis")
	ErrUnexpectedChar    = errors.New(errors.ErrCodePatternParseFailed, "unexpected character")
	ErrDanglingBond      = errors.New(errors.ErrCodePatternParseFailed, "bond expression without a following atom")
	ErrUnclosedRing      = errors.New(errors.ErrCodePatternParseFailed, "ring closure left open")
	ErrRingBondConflict  = errors.New(errors.ErrCodePatternParseFailed, "ring closure bond is invalid")
	ErrDisconnected      = errors.New(errors.ErrCodePatternParseFailed, "pattern is not connected")
	ErrUnknownDecorator  = errors.New(errors.ErrCodePatternDecoratorInvalid, "unrecognized decorator")
	ErrEmptyExpression   = errors.New(errors.ErrCodePatternDecoratorInvalid, "empty decorator expression")
	ErrDuplicateLabel    = errors.New(errors.ErrCodePatternLabelConflict, "positional label already in use")
	ErrInvalidLabel      = errors.New(errors.ErrCodeValidation, "positional label must not be negative")
	ErrAtomNotInGraph    = errors.New(errors.ErrCodePatternComponentNotFound, "atom does not belong to this pattern")
)

// ParseError reports a malformed pattern string. No graph is produced when
// it is returned.
type ParseError struct {
	Input    string
	Pos      int
	Fragment string
	Reason   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s %q at position %d", e.Input, reasonText(e.Reason), e.Fragment, e.Pos)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// DecoratorError reports a token rejected by the mutation API.
type DecoratorError struct {
	Token  string
	Reason error
}

func (e *DecoratorError) Error() string {
	return fmt.Sprintf("%s %q", reasonText(e.Reason), e.Token)
}

func (e *DecoratorError) Unwrap() error { return e.Reason }

func reasonText(err error) string {
	if ae, ok := err.(*errors.AppError); ok {
		return ae.Message
	}
	if err == nil {
		return "invalid"
	}
	return err.Error()
}

//Personal.AI order the ending
