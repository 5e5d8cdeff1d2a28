package main

import (
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/labstack/gommon/log"

	"taxi-simulator/internal/console"
	"taxi-simulator/internal/game/aircraft"
	"taxi-simulator/internal/game/simulation"
	"taxi-simulator/internal/game/topology"
	"taxi-simulator/internal/logging"
	"taxi-simulator/internal/ui"
	"taxi-simulator/pkg/types"
)

const (
	screenWidth  = 1280
	screenHeight = 768

	// Clicks further than this from any node, in screen pixels, do not
	// toggle a stop-bar.
	stopBarPickRadius  = 50
	aircraftPickRadius = 12
	radioLines         = 8
)

var statusColor = map[aircraft.Status]color.RGBA{
	aircraft.AT_STAND: {180, 180, 180, 255},
	aircraft.TAXIING:  {80, 220, 80, 255},
	aircraft.HOLDING:  {255, 190, 0, 255},
	aircraft.ARRIVED:  {80, 160, 255, 255},
}

type Camera struct {
	X, Y                 float64
	PanStartX, PanStartY int
	Scale                float64
}

type Game struct {
	width, height int
	camera        *Camera
	sim           *simulation.Simulation
	pacer         *simulation.Pacer

	selected     types.Callsign
	stopBarMode  bool
	feedback     string
	commandInput *ui.TextInput
}

func NewGame(sim *simulation.Simulation, tickInterval time.Duration) *Game {
	g := &Game{
		sim:    sim,
		camera: &Camera{X: 100, Y: 0, Scale: 0.65},
		width:  screenWidth,
		height: screenHeight,
		pacer:  simulation.NewPacer(tickInterval, simulation.MaxCatchUpTicks, time.Now()),
	}
	g.commandInput = ui.NewTextInput(10, screenHeight-40, screenWidth/2, 30, g.runCommand)
	return g
}

func (g *Game) runCommand(line string) {
	msg, err := console.Run(g.sim, line, g.selected)
	if err != nil {
		g.feedback = "error: " + err.Error()
		return
	}
	g.feedback = msg
}

func (g *Game) Update() error {
	// The kernel runs on a fixed cadence regardless of frame rate.
	for range g.pacer.Due(time.Now()) {
		for _, tr := range g.sim.Tick() {
			log.Debugf("%s %s -> %s at %s", tr.Callsign, tr.From, tr.To, tr.Node)
		}
	}

	g.handleInput()
	g.commandInput.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{10, 14, 20, 255})

	entries := g.sim.Snapshot()
	g.drawTopology(screen)
	g.drawRoute(screen, entries)
	for _, e := range entries {
		g.drawAircraft(screen, e)
	}
	g.drawUI(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

func (g *Game) handleInput() {
	if g.commandInput.IsActive {
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.stopBarMode = !g.stopBarMode
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if g.commandInput.IsClicked(x, y) {
			g.commandInput.IsActive = true
			return
		}
		if g.stopBarMode {
			g.toggleStopBarAt(x, y)
		} else {
			g.selectAircraftAt(x, y)
		}
	}

	_, wy := ebiten.Wheel()
	if wy != 0 {
		cx, cy := ebiten.CursorPosition()
		worldX, worldY := g.screenToWorld(float64(cx), float64(cy))

		scale := g.camera.Scale
		if wy > 0 {
			scale *= 1.1
		} else {
			scale /= 1.1
		}
		g.camera.Scale = types.Clamp(scale, 0.25, 4.0)

		newWorldX, newWorldY := g.screenToWorld(float64(cx), float64(cy))
		g.camera.X -= newWorldX - worldX
		g.camera.Y -= newWorldY - worldY
	}

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		dx, dy := ebiten.CursorPosition()
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
			g.camera.PanStartX, g.camera.PanStartY = dx, dy
		} else {
			g.camera.X -= float64(dx-g.camera.PanStartX) / g.camera.Scale
			g.camera.Y -= float64(dy-g.camera.PanStartY) / g.camera.Scale
			g.camera.PanStartX, g.camera.PanStartY = dx, dy
		}
	}
}

func (g *Game) toggleStopBarAt(x, y int) {
	wx, wy := g.screenToWorld(float64(x), float64(y))
	node, ok := g.sim.Airport().Graph.Nearest(types.NewVec2(wx, wy), stopBarPickRadius/g.camera.Scale)
	if !ok {
		return
	}
	g.runCommand("BAR " + string(node))
}

func (g *Game) selectAircraftAt(x, y int) {
	wx, wy := g.screenToWorld(float64(x), float64(y))
	click := types.NewVec2(wx, wy)

	g.selected = ""
	for _, e := range g.sim.Snapshot() {
		if e.Position().DistanceTo(click) <= aircraftPickRadius/g.camera.Scale {
			g.selected = e.Callsign
			log.Infof("Selected aircraft: %s", e.Callsign)
			return
		}
	}
}

func (g *Game) screenToWorld(sx, sy float64) (wx, wy float64) {
	wx = sx/g.camera.Scale + g.camera.X
	wy = sy/g.camera.Scale + g.camera.Y
	return
}

func (g *Game) worldToScreen(p types.Vec2) (float32, float32) {
	return float32((p.X - g.camera.X) * g.camera.Scale), float32((p.Y - g.camera.Y) * g.camera.Scale)
}

func (g *Game) drawTopology(screen *ebiten.Image) {
	graph := g.sim.Airport().Graph
	edgeColor := color.RGBA{70, 90, 110, 255}
	for _, e := range graph.Edges() {
		pa, _ := graph.Position(e.A)
		pb, _ := graph.Position(e.B)
		ax, ay := g.worldToScreen(pa)
		bx, by := g.worldToScreen(pb)
		vector.StrokeLine(screen, ax, ay, bx, by, 2, edgeColor, true)
	}

	for _, id := range graph.Nodes() {
		p, _ := graph.Position(id)
		x, y := g.worldToScreen(p)
		c := color.RGBA{0, 200, 200, 255}
		if g.sim.Airport().IsStand(id) {
			c = color.RGBA{200, 200, 0, 255}
		}
		vector.DrawFilledCircle(screen, x, y, 3, c, true)
		if g.camera.Scale >= 0.8 {
			ebitenutil.DebugPrintAt(screen, string(id), int(x)+4, int(y)+4)
		}

		if g.sim.StopBarActive(id) {
			vector.StrokeLine(screen, x-10, y-10, x+10, y+10, 3, color.RGBA{255, 0, 0, 255}, true)
			vector.StrokeLine(screen, x-10, y+10, x+10, y-10, 3, color.RGBA{255, 0, 0, 255}, true)
		}
	}
}

// drawRoute traces the remaining route of the selected aircraft.
func (g *Game) drawRoute(screen *ebiten.Image, entries []simulation.Entry) {
	graph := g.sim.Airport().Graph
	for _, e := range entries {
		if e.Callsign != g.selected || e.Status == aircraft.ARRIVED || len(e.Route) == 0 {
			continue
		}
		passed := false
		prev := e.Position()
		for _, id := range e.Route {
			if id == e.Node {
				passed = true
				continue
			}
			if !passed {
				continue
			}
			p, _ := graph.Position(id)
			ax, ay := g.worldToScreen(prev)
			bx, by := g.worldToScreen(p)
			vector.StrokeLine(screen, ax, ay, bx, by, 1, color.RGBA{255, 255, 255, 160}, true)
			prev = p
		}
	}
}

func (g *Game) drawAircraft(screen *ebiten.Image, e simulation.Entry) {
	x, y := g.worldToScreen(e.Position())
	c := statusColor[e.Status]

	// Nose along the heading, two tail corners behind it.
	const size = 9
	rad := e.Heading * math.Pi / 180
	corner := func(angle, r float64) (float32, float32) {
		return x + float32(r*math.Sin(angle)), y - float32(r*math.Cos(angle))
	}
	nx, ny := corner(rad, size)
	lx, ly := corner(rad+2.5, size*0.8)
	rx, ry := corner(rad-2.5, size*0.8)
	vector.StrokeLine(screen, nx, ny, lx, ly, 2, c, true)
	vector.StrokeLine(screen, lx, ly, rx, ry, 2, c, true)
	vector.StrokeLine(screen, rx, ry, nx, ny, 2, c, true)

	if e.Callsign == g.selected {
		vector.StrokeCircle(screen, x, y, 14, 1, color.White, true)
	}

	tag := fmt.Sprintf("%s\n%s", e.Callsign, e.Status)
	switch e.Status {
	case aircraft.TAXIING:
		tag += " " + string(e.Destination)
	case aircraft.HOLDING:
		tag += " " + string(e.HoldingAt)
	}
	ebitenutil.DebugPrintAt(screen, tag, int(x)+12, int(y)-20)
}

func (g *Game) drawUI(screen *ebiten.Image) {
	g.commandInput.Draw(screen)

	status := "Selected: none"
	if g.selected != "" {
		status = "Selected: " + string(g.selected)
	}
	mode := "select"
	if g.stopBarMode {
		mode = "stop-bar"
	}
	status += "   Click mode: " + mode + " (B)"
	if bars := g.sim.StopBars(); len(bars) > 0 {
		ids := make([]string, len(bars))
		for i, b := range bars {
			ids[i] = string(b)
		}
		status += "   Stop-bars: " + strings.Join(ids, " ")
	}
	ebitenutil.DebugPrintAt(screen, status, 10, g.height-60)
	if g.feedback != "" {
		ebitenutil.DebugPrintAt(screen, g.feedback, g.width/2+20, g.height-34)
	}

	radio := g.sim.RadioMessages()
	if len(radio) > radioLines {
		radio = radio[len(radio)-radioLines:]
	}
	for i, m := range radio {
		line := fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("15:04:05"), m.Callsign, m.Message)
		ebitenutil.DebugPrintAt(screen, line, g.width-460, 10+16*i)
	}

	ebitenutil.DebugPrint(screen, "FPS: "+strconv.FormatFloat(ebiten.ActualFPS(), 'f', 1, 64)+
		"  Tick: "+strconv.FormatUint(g.sim.Ticks(), 10))
}

func main() {
	speed := flag.Float64("speed", simulation.DefaultConfig().Speed, "path points advanced per tick")
	samples := flag.Int("samples", simulation.DefaultConfig().SamplesPerSegment, "spline samples per route segment")
	tick := flag.Duration("tick", simulation.DefaultTickInterval, "simulation tick interval")
	topologyFile := flag.String("topology", "", "airfield JSON file (default: built-in EGNX)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error or off")
	logFile := flag.String("log-file", "", "also write logs to this rotated file")
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
	if *tick <= 0 {
		log.Fatalf("tick interval must be positive, got %s", *tick)
	}

	config := simulation.DefaultConfig()
	config.Speed = *speed
	config.SamplesPerSegment = *samples
	sim, err := simulation.NewSimulation(airport, config)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Taxi Simulator - " + airport.ICAO)
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(NewGame(sim, *tick)); err != nil {
		log.Fatal(err)
	}
}
