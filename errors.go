package binrange

import (
	"errors"
	"fmt"

	"github.com/hupe1980/binrange/interval"
	"github.com/hupe1980/binrange/model"
)

var (
	// ErrNotFound is returned when no stored range contains the PAN.
	// A miss is an expected outcome, not a failure; callers should
	// branch on it with errors.Is.
	ErrNotFound = errors.New("no matching card range found")

	// ErrNilRanges is returned when a batch operation is invoked with a
	// nil slice. It aliases the interval package's sentinel so
	// errors.Is matches across layers.
	ErrNilRanges = interval.ErrNilRanges

	// ErrNilMessage is returned when StorePResMessage is invoked with a
	// nil message.
	ErrNilMessage = errors.New("PRes message cannot be nil")
)

// ErrNegativePAN indicates a lookup with a negative PAN.
//
// PANs are numeric strings on the wire; a negative value can only come
// from a broken caller, so it is rejected before the tree is consulted.
type ErrNegativePAN struct {
	PAN int64
}

func (e *ErrNegativePAN) Error() string {
	return fmt.Sprintf("PAN cannot be negative: %d", e.PAN)
}

// IsValidationError reports whether err is one of the construction-time
// validation failures (invalid range, nil input, negative PAN) as opposed
// to a lookup miss.
func IsValidationError(err error) bool {
	var ir *model.ErrInvalidRange
	if errors.As(err, &ir) {
		return true
	}
	var nd *model.ErrNilCardRangeData
	if errors.As(err, &nd) {
		return true
	}
	var np *ErrNegativePAN
	if errors.As(err, &np) {
		return true
	}
	return errors.Is(err, ErrNilRanges) || errors.Is(err, ErrNilMessage)
}
