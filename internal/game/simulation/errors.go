package simulation

import (
	"errors"

	"taxi-simulator/internal/game/topology"
)

var (
	ErrDuplicateCallsign = errors.New("an aircraft with that callsign already exists")
	ErrInvalidCallsign   = errors.New("invalid callsign")
	ErrNoRoute           = errors.New("no route to destination")
	ErrUnknownAircraft   = errors.New("no aircraft exists with specified callsign")
	ErrUnknownNode       = topology.ErrUnknownNode
)
