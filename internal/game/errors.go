package game

import (
	"errors"
	"fmt"
)

type rejection struct {
	msg string
}

func (r *rejection) Error() string { return r.msg }
func (r *rejection) Unwrap() error { return ErrRejected }

// Rejectf builds an ErrRejected error whose text is shown to the player as is.
func Rejectf(format string, args ...any) error {
	return &rejection{msg: fmt.Sprintf(format, args...)}
}

// Message returns the player-facing text of err.
func Message(err error) string {
	var r *rejection
	if errors.As(err, &r) {
		return r.msg
	}
	return err.Error()
}
