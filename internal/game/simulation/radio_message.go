package simulation

import (
	"slices"
	"time"

	"taxi-simulator/pkg/types"
)

type RadioMessage struct {
	Timestamp time.Time      `json:"timestamp" msgpack:"timestamp"`
	Tick      uint64         `json:"tick" msgpack:"tick"`
	Callsign  types.Callsign `json:"callsign" msgpack:"callsign"`
	Message   string         `json:"message" msgpack:"message"`
	IsUrgent  bool           `json:"urgent" msgpack:"urgent"`
}

// addRadioMessage must be called with s.mu held.
func (s *Simulation) addRadioMessage(callsign types.Callsign, message string, isUrgent bool) {
	if s.maxRadioLogSize == 0 {
		return
	}
	msg := RadioMessage{
		Timestamp: time.Now(),
		Tick:      s.ticks,
		Callsign:  callsign,
		Message:   message,
		IsUrgent:  isUrgent,
	}
	s.radioLog = append(s.radioLog, msg)

	if len(s.radioLog) > s.maxRadioLogSize {
		s.radioLog = s.radioLog[len(s.radioLog)-s.maxRadioLogSize:]
	}
}

// RadioMessages returns the retained radio log, oldest first.
func (s *Simulation) RadioMessages() []RadioMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.radioLog)
}
