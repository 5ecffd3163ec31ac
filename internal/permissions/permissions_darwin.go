//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

import "fmt"

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() Status {
	return Status(C.checkMicrophonePermission())
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() {
	C.requestMicrophonePermission()
}

// EnsureMicrophone fails unless recording is authorized. An undetermined
// status triggers the system prompt first.
func EnsureMicrophone() error {
	status := CheckMicrophone()
	if status == Authorized {
		return nil
	}
	if status == NotDetermined {
		RequestMicrophone()
	}
	return fmt.Errorf("microphone permission %s: %w", status, ErrNotGranted)
}
