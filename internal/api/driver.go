package api

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
)

// Run drives the kernel: one Tick per interval, with the resulting state
// pushed to websocket subscribers. It returns when ctx is done. An
// interval <= 0 leaves ticking to POST /tick.
func (s *Server) Run(ctx context.Context, interval time.Duration) error {
	defer s.hub.close()

	if interval <= 0 {
		log.Infof("Ticker disabled; advance with POST /tick")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("Ticking every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, tr := range s.sim.Tick() {
				log.Debugf("%s %s -> %s at %s", tr.Callsign, tr.From, tr.To, tr.Node)
			}
			s.hub.publish(s.state())
		}
	}
}
