package errors

import (
	"context"
	"errors"

	"github.com/matzehuels/vgdist/pkg/distance"
	vgio "github.com/matzehuels/vgdist/pkg/io"
	"github.com/matzehuels/vgdist/pkg/snarl"
	"github.com/matzehuels/vgdist/pkg/vgraph"
)

// sentinels maps library errors to codes, checked in order.
var sentinels = []struct {
	err  error
	code Code
}{
	{distance.ErrInvalidPosition, ErrCodeInvalidPosition},
	{distance.ErrNotInRegion, ErrCodeInvalidPosition},
	{distance.ErrUnknownRegion, ErrCodeNotFound},
	{distance.ErrInconsistent, ErrCodeInvalidDecomposition},
	{distance.ErrCorrupt, ErrCodeCorruptIndex},
	{distance.ErrIDBoundsMismatch, ErrCodeIDBoundsMismatch},
	{distance.ErrNoMaxIndex, ErrCodeNoMaxIndex},
	{snarl.ErrUnknownRegion, ErrCodeInvalidDecomposition},
	{snarl.ErrUnknownChain, ErrCodeInvalidDecomposition},
	{snarl.ErrEmptyChain, ErrCodeInvalidDecomposition},
	{snarl.ErrRegionInChain, ErrCodeInvalidDecomposition},
	{snarl.ErrOrphanRegion, ErrCodeInvalidDecomposition},
	{snarl.ErrBrokenChain, ErrCodeInvalidDecomposition},
	{snarl.ErrCycle, ErrCodeInvalidDecomposition},
	{snarl.ErrDuplicateStart, ErrCodeInvalidDecomposition},
	{snarl.ErrDegenerate, ErrCodeInvalidDecomposition},
	{vgraph.ErrInvalidNodeID, ErrCodeInvalidInput},
	{vgraph.ErrDuplicateNode, ErrCodeInvalidInput},
	{vgraph.ErrUnknownNode, ErrCodeInvalidInput},
	{vgraph.ErrInvalidLength, ErrCodeInvalidInput},
	{vgio.ErrMalformed, ErrCodeInvalidInput},
	{vgio.ErrNoLength, ErrCodeInvalidInput},
	{vgio.ErrLengthMismatch, ErrCodeInvalidInput},
	{context.Canceled, ErrCodeCanceled},
	{context.DeadlineExceeded, ErrCodeCanceled},
}

// Classify returns err as an *Error. Errors that already carry a code are
// returned unchanged; known library errors get their code; anything else is
// INTERNAL_ERROR. Classify(nil) is nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return &Error{Code: s.code, Message: err.Error(), Cause: err}
		}
	}
	return &Error{Code: ErrCodeInternal, Message: err.Error(), Cause: err}
}
