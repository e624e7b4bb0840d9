// Package display runs the client inside an ebiten window.
package display

import (
	"context"
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"arena-client/internal/chat"
	"arena-client/internal/client"
	"arena-client/internal/config"
	"arena-client/internal/input"
	"arena-client/internal/logging"
	"arena-client/internal/render"
)

const (
	chatLines  = 8
	lineHeight = 16
)

var directionKeys = map[input.Direction][]ebiten.Key{
	input.Up:    {ebiten.KeyW, ebiten.KeyArrowUp},
	input.Down:  {ebiten.KeyS, ebiten.KeyArrowDown},
	input.Left:  {ebiten.KeyA, ebiten.KeyArrowLeft},
	input.Right: {ebiten.KeyD, ebiten.KeyArrowRight},
}

// Game implements ebiten.Game over a client loop.
type Game struct {
	ctx      context.Context
	loop     *client.Loop
	stage    *render.Stage
	controls *input.State
	composer *chat.Composer
	prompt   chat.Prompt
	log      *zap.Logger

	screen     *ebiten.Image
	drawnFrame uint64
	width      int
	height     int
	focused    bool
	runes      []rune
}

// New creates the window game. ctx cancellation closes the window.
func New(ctx context.Context, loop *client.Loop, stage *render.Stage, controls *input.State, composer *chat.Composer, log *zap.Logger) *Game {
	return &Game{
		ctx:      ctx,
		loop:     loop,
		stage:    stage,
		controls: controls,
		composer: composer,
		log:      logging.OrNop(log).Named("display"),
		focused:  true,
	}
}

// Run opens the window and blocks until it closes or ctx ends.
func Run(cfg config.ViewportConfig, g *Game) error {
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TPS)

	g.width, g.height = cfg.Width, cfg.Height
	g.log.Info("🖥️ window opened", zap.Int("width", cfg.Width), zap.Int("height", cfg.Height))

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update handles input and steps the client loop once per tick.
func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}

	g.loop.Resize(float64(g.width), float64(g.height))
	g.handleFocus()
	if g.prompt.IsOpen() {
		g.handleTyping()
	} else {
		g.handleControls()
	}
	g.loop.Step()
	return nil
}

// handleFocus drops held keys when the window loses focus so the player
// does not keep running.
func (g *Game) handleFocus() {
	focused := ebiten.IsFocused()
	if g.focused && !focused {
		g.controls.StopMovement()
		g.controls.StopFiring()
	}
	g.focused = focused
}

func (g *Game) handleControls() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.controls.StopMovement()
		g.prompt.Open()
		return
	}

	for dir, keys := range directionKeys {
		for _, k := range keys {
			if inpututil.IsKeyJustPressed(k) {
				g.controls.Press(dir)
			}
			if inpututil.IsKeyJustReleased(k) {
				g.controls.Release(dir)
			}
		}
	}

	cam := g.loop.Session().Camera()
	x, y := ebiten.CursorPosition()
	angle := cam.ScreenToAngle(float64(x), float64(y))

	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), ebiten.IsKeyPressed(ebiten.KeySpace):
		g.controls.StartFiring(angle)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft), inpututil.IsKeyJustReleased(ebiten.KeySpace):
		g.controls.StopFiring()
	}
}

func (g *Game) handleTyping() {
	g.runes = ebiten.AppendInputChars(g.runes[:0])
	g.prompt.Type(g.runes...)

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.prompt.Cancel()
	case inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		g.prompt.Backspace()
	case inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		text := g.prompt.Take()
		if g.composer == nil || text == "" {
			return
		}
		if err := g.composer.Submit(text); err != nil {
			g.log.Debug("chat not sent", zap.Error(err))
			g.loop.Chat().Add(fmt.Sprintf("(not sent: %v)", err))
		}
	}
}

// Draw copies the last rendered frame and prints the chat on top.
func (g *Game) Draw(screen *ebiten.Image) {
	if frames := g.stage.Frames(); frames > 0 {
		img := g.stage.Image()
		b := img.Bounds()
		if g.screen == nil || g.screen.Bounds().Dx() != b.Dx() || g.screen.Bounds().Dy() != b.Dy() {
			g.screen = ebiten.NewImage(b.Dx(), b.Dy())
			g.drawnFrame = 0
		}
		if frames != g.drawnFrame {
			g.screen.WritePixels(img.Pix)
			g.drawnFrame = frames
		}
		screen.DrawImage(g.screen, nil)
	} else {
		ebitenutil.DebugPrint(screen, "Connecting...")
	}

	lines := g.loop.Chat().Tail(chatLines)
	y := screen.Bounds().Dy() - (len(lines)+2)*lineHeight
	for _, l := range lines {
		ebitenutil.DebugPrintAt(screen, l.Text, 8, y)
		y += lineHeight
	}
	if g.prompt.IsOpen() {
		ebitenutil.DebugPrintAt(screen, "> "+g.prompt.Text()+"_", 8, y)
	}
}

// Layout follows the window size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
