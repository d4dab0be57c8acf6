package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match. The message is shown to end users and must not enable account
	// enumeration.
	ErrInvalidCredentials = errors.New("incorrect email address or password")

	ErrAllFieldsRequired  = errors.New("please fill all the fields")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrEmailAlreadyExists = errors.New("user already exists")

	ErrNoProfileFields = errors.New("at least one of fullName, bio or profilePic is required")

	ErrEmptyMessage     = errors.New("cannot send an empty message")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrImageUpload      = errors.New("failed to upload image")

	// ErrMessageNotSeen covers all single-message mark failures: unknown id,
	// wrong receiver, already seen. One message avoids leaking which.
	ErrMessageNotSeen = errors.New("message not found or already seen")

	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("not a participant of this message")
	ErrEmojiRequired   = errors.New("emoji is required")
)
