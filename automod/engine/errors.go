package engine

import (
	"fmt"
)

// The notice to a member could not be delivered (eg, they do not accept direct messages). Never fatal to the decision.
type NotificationDeliveryError struct {
	UserID string
	Err    error
}

func (e *NotificationDeliveryError) Error() string {
	return fmt.Sprintf("delivering notice to %s: %v", e.UserID, e.Err)
}

func (e *NotificationDeliveryError) Unwrap() error {
	return e.Err
}

// The removal action failed (eg, missing permission, or the member already left). Not retried.
type ActionExecutionError struct {
	UserID string
	Action Action
	Err    error
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("executing %s on %s: %v", e.Action, e.UserID, e.Err)
}

func (e *ActionExecutionError) Unwrap() error {
	return e.Err
}

// Extended member data could not be fetched while evaluating the scam-signal check. Treated as "no signal": the member is not removed on this basis.
type ProfileFetchError struct {
	UserID string
	Err    error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("fetching profile for %s: %v", e.UserID, e.Err)
}

func (e *ProfileFetchError) Unwrap() error {
	return e.Err
}
