package dictation

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind int

const (
	Unknown ErrorKind = iota
	StartFailure
	PermissionDenied
	NetworkUnavailable
	NoSpeechDetected
	ServiceUnavailable
	UserAborted
)

func (k ErrorKind) String() string {
	switch k {
	case StartFailure:
		return "start-failure"
	case PermissionDenied:
		return "permission-denied"
	case NetworkUnavailable:
		return "network"
	case NoSpeechDetected:
		return "no-speech"
	case ServiceUnavailable:
		return "service-unavailable"
	case UserAborted:
		return "aborted"
	}
	return "unknown"
}

// Message is the user-facing text for k.
func (k ErrorKind) Message() string {
	switch k {
	case StartFailure:
		return "Impossible de démarrer la dictée vocale"
	case PermissionDenied:
		return "Accès au microphone ou au service refusé"
	case NetworkUnavailable:
		return "Connexion réseau indisponible"
	case NoSpeechDetected:
		return "Aucune parole détectée"
	case ServiceUnavailable:
		return "Service de reconnaissance vocale indisponible"
	}
	return "Erreur de reconnaissance vocale"
}

// Error is a classified recognizer failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "dictation: " + e.Kind.String()
	}
	return fmt.Sprintf("dictation: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps err onto an ErrorKind. Recognizers return *Error for the
// failures they can name; the rest are inferred.
func Classify(err error) ErrorKind {
	var de *Error
	var ne net.Error
	switch {
	case err == nil:
		return Unknown
	case errors.As(err, &de):
		return de.Kind
	case errors.Is(err, context.Canceled):
		return UserAborted
	case errors.As(err, &ne):
		return NetworkUnavailable
	}
	return Unknown
}
