package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Business errors. Handlers map ErrNotFound to 404 and the others to 400;
// anything else is an unexpected failure.
var (
	ErrInvalidOperation     = errors.New("you cannot do this to yourself")
	ErrAlreadyFriends       = errors.New("you are already friends")
	ErrDuplicatePending     = errors.New("a pending friend request already exists between you")
	ErrForbidden            = errors.New("you are not allowed to do this")
	ErrAlreadyProcessed     = errors.New("this request has already been processed")
	ErrOpportunityClosed    = errors.New("this opportunity is not accepting applications")
	ErrOpportunityExpired   = errors.New("the deadline for this opportunity has passed")
	ErrDuplicateApplication = errors.New("you have already applied to this opportunity")
	ErrNotFound             = errors.New("not found")
	ErrNotCancelable        = errors.New("only pending applications can be cancelled")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidInput         = errors.New("invalid input")
)

var businessErrors = []error{
	ErrInvalidOperation, ErrAlreadyFriends, ErrDuplicatePending, ErrForbidden,
	ErrAlreadyProcessed, ErrOpportunityClosed, ErrOpportunityExpired,
	ErrDuplicateApplication, ErrNotFound, ErrNotCancelable, ErrInvalidStatus,
	ErrInvalidInput, ErrUserAlreadyExists, ErrInvalidCredentials,
}

// IsBusinessError reports whether err is an expected, user-facing rejection.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// notFound converts gorm's not-found error into ErrNotFound naming the missing thing.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
