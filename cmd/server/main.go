// server runs the taxi kernel headless and serves it over HTTP and
// websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goforj/godump"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"taxi-simulator/internal/api"
	"taxi-simulator/internal/game/simulation"
	"taxi-simulator/internal/game/topology"
	"taxi-simulator/internal/logging"
)

func main() {
	port := flag.Int("port", 8080, "HTTP listen port")
	tick := flag.Duration("tick", simulation.DefaultTickInterval, "tick interval; 0 advances only on POST /tick")
	speed := flag.Float64("speed", simulation.DefaultConfig().Speed, "path points advanced per tick")
	samples := flag.Int("samples", simulation.DefaultConfig().SamplesPerSegment, "spline samples per route segment")
	topologyFile := flag.String("topology", "", "airfield JSON file (default: built-in EGNX)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error or off")
	logFile := flag.String("log-file", "", "also write logs to this rotated file")
	dump := flag.Bool("dump", false, "print the loaded airfield and exit")
	flag.Parse()

	closer, err := logging.Setup(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closer.Close()

	airport := topology.EGNX()
	if *topologyFile != "" {
		if airport, err = topology.LoadFile(*topologyFile); err != nil {
			log.Fatalf("%s: %v", *topologyFile, err)
		}
	}
	if *dump {
		godump.Dump(airport)
		return
	}

	config := simulation.DefaultConfig()
	config.Speed = *speed
	config.SamplesPerSegment = *samples
	sim, err := simulation.NewSimulation(airport, config)
	if err != nil {
		log.Fatal(err)
	}

	if err := serve(sim, *port, *tick); err != nil {
		log.Fatal(err)
	}
}

func serve(sim *simulation.Simulation, port int, tick time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(sim)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Infof("%s: serving on %s", sim.Airport().ICAO, httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		return srv.Run(ctx, tick)
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
