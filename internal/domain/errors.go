package domain

import "errors"

var (
	// ErrMissingRiotID indicates a refresh request without a riot id
	ErrMissingRiotID = errors.New("summoner name and tagline are required")

	// ErrPlayerNotFound indicates the player has never been dispatched
	ErrPlayerNotFound = errors.New("player not found")

	// ErrParticipantNotFound indicates the player is absent from a match's
	// participant list. Integrity issue: logged, the item still counts as
	// processed so completion is never blocked.
	ErrParticipantNotFound = errors.New("participant not found in match")

	// ErrAggregateNotReady indicates not all matches have been processed yet
	ErrAggregateNotReady = errors.New("aggregate not ready")
)
