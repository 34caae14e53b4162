package editor

import "errors"

var (
	ErrCannotDeleteLastSlide = errors.New("cannot delete the last slide")
	ErrIndexOutOfRange       = errors.New("slide index out of range")
	ErrNotBookend            = errors.New("slide is not a cover or end slide")
	ErrInvalidLink           = errors.New("call-to-action link must be an http(s) URL")
	ErrNavigationLocked      = errors.New("slide is transitioning or being edited")
	ErrNotEditing            = errors.New("no edit in progress")
	ErrClosed                = errors.New("editor is closed")
)
