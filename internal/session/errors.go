package session

import "errors"

var (
	// ErrNotFound means no session exists for the owner.
	ErrNotFound = errors.New("session not found")
	// ErrNotReady means the session exists but is not connected.
	ErrNotReady = errors.New("session not connected")
	// ErrDeliveryFailed means the transport rejected or errored on a send.
	ErrDeliveryFailed = errors.New("message delivery failed")
	// ErrNoChallenge means no pairing challenge is currently available.
	ErrNoChallenge = errors.New("pairing challenge not available")
)
