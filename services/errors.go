package services

import "errors"

// Common errors shared across services and mapped to HTTP by the handlers.
var (
	// Lifecycle errors. Every validation failure leaves the match in its
	// prior state; nothing is retried inside the services.
	ErrMatchNotFound     = errors.New("match not found")
	ErrInvalidMatchState = errors.New("operation is not allowed in the current match status")
	ErrNotParticipant    = errors.New("user is not a participant of this match")
	ErrSelfConfirmation  = errors.New("a player cannot confirm their own report")
	ErrInvalidScore      = errors.New("exactly one side must reach the win score, the other must stay below it")

	// Tournament errors.
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentNotActive      = errors.New("tournament is not active")
	ErrRegistrationNotOpen      = errors.New("tournament registration is not open")
	ErrTournamentAlreadyStarted = errors.New("tournament bracket was already generated")
	ErrTournamentFull           = errors.New("tournament registration is full")
	ErrInvalidTournamentConfig  = errors.New("invalid tournament configuration")

	// Validation of generation inputs beyond what the generators check.
	ErrSeedingFailed = errors.New("failed to assign seeds")
)
