package ui

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const maxHistory = 32

// TextInput is the single-line command box. Submitted lines are kept so
// the up and down arrows can recall them.
type TextInput struct {
	Text     string
	IsActive bool
	X, Y     int
	Width    int
	Height   int
	OnSubmit func(string)

	history []string
	recall  int
}

func NewTextInput(x, y, width, height int, onSubmit func(string)) *TextInput {
	return &TextInput{
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		OnSubmit: onSubmit,
	}
}

func (ti *TextInput) Update() {
	if !ti.IsActive {
		return
	}

	ti.Text += string(ebiten.AppendInputChars(nil))

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		if len(ti.Text) > 0 {
			ti.Text = ti.Text[:len(ti.Text)-1]
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		ti.Text = ""
		ti.IsActive = false
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		if ti.recall > 0 {
			ti.recall--
			ti.Text = ti.history[ti.recall]
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		if ti.recall < len(ti.history)-1 {
			ti.recall++
			ti.Text = ti.history[ti.recall]
		} else {
			ti.recall = len(ti.history)
			ti.Text = ""
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		ti.submit()
	}
}

func (ti *TextInput) submit() {
	line := strings.TrimSpace(ti.Text)
	ti.Text = ""
	ti.IsActive = false
	if line == "" {
		return
	}

	ti.history = append(ti.history, line)
	if len(ti.history) > maxHistory {
		ti.history = ti.history[len(ti.history)-maxHistory:]
	}
	ti.recall = len(ti.history)

	if ti.OnSubmit != nil {
		ti.OnSubmit(line)
	}
}

func (ti *TextInput) Draw(screen *ebiten.Image) {
	bg := color.RGBA{40, 40, 40, 255}
	if ti.IsActive {
		bg = color.RGBA{70, 70, 70, 255}
	}
	x, y, w, h := float32(ti.X), float32(ti.Y), float32(ti.Width), float32(ti.Height)
	vector.DrawFilledRect(screen, x, y, w, h, bg, false)
	vector.StrokeRect(screen, x, y, w, h, 1, color.White, false)

	text := ti.Text
	switch {
	case ti.IsActive:
		text += "_"
	case text == "":
		text = "click to type: ADD, TAXI, BAR, CLEAR, REMOVE"
	}
	ebitenutil.DebugPrintAt(screen, text, ti.X+5, ti.Y+(ti.Height-16)/2)
}

// IsClicked reports whether a screen point falls inside the box.
func (ti *TextInput) IsClicked(mouseX, mouseY int) bool {
	return mouseX >= ti.X && mouseX <= ti.X+ti.Width &&
		mouseY >= ti.Y && mouseY <= ti.Y+ti.Height
}
