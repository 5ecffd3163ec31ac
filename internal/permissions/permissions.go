package permissions

import (
	"errors"
	"fmt"
)

// ErrNotGranted is returned when the OS refuses microphone access.
var ErrNotGranted = errors.New("microphone access not granted")

// Status mirrors the AVFoundation authorization states.
type Status int

const (
	NotDetermined Status = iota
	Restricted
	Denied
	Authorized
)

func (s Status) String() string {
	switch s {
	case NotDetermined:
		return "not determined"
	case Restricted:
		return "restricted"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
