package command

import "errors"

var (
	// ErrMessageSent indicates Send was called on a message already sent.
	ErrMessageSent = errors.New("message already sent")
	// ErrMessageTooLong indicates the message exceeded MaxMessageLen and was dropped.
	ErrMessageTooLong = errors.New("message too long")
	// ErrNoWriter indicates the message has nowhere to go.
	ErrNoWriter = errors.New("no writer")
	// ErrHeaderTooLong indicates the header exceeds MaxHeaderLen.
	ErrHeaderTooLong = errors.New("header too long")
	// ErrInvalidHeader indicates the header contains reserved characters.
	ErrInvalidHeader = errors.New("invalid header")
)
