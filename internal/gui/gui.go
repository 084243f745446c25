// Package gui runs the desk session in an ebiten window.
package gui

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/desk"
	"github.com/park285/cheese-desk/internal/game"
)

type Options struct {
	Title    string
	Thinking string
	Logger   *zap.Logger
}

// Window is an ebiten.Game around a desk.Session.
type Window struct {
	ctx     context.Context
	session *desk.Session
	opts    Options
	logger  *zap.Logger

	screen   *ebiten.Image
	thinking bool
}

func NewWindow(ctx context.Context, session *desk.Session, opts Options) *Window {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Window{ctx: ctx, session: session, opts: opts, logger: logger}
}

// Run opens the window and blocks until it is closed or ctx is cancelled.
func (w *Window) Run() error {
	size := w.session.Size()
	ebiten.SetWindowSize(size, size)
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetWindowClosingHandled(true)
	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (w *Window) Update() error {
	x, y := ebiten.CursorPosition()
	p := desk.Pointer{
		X:       x,
		Y:       y,
		Down:    ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Closing: ebiten.IsWindowBeingClosed() || w.ctx.Err() != nil,
	}
	w.updateTitle()
	if err := w.session.Tick(w.ctx, p); err != nil {
		if errors.Is(err, game.ErrQuit) {
			return ebiten.Termination
		}
		w.logger.Error("frame failed", zap.Error(err))
		return err
	}
	return nil
}

// updateTitle shows the thinking text for the frame in which the engine
// is asked for a move.
func (w *Window) updateTitle() {
	thinking := w.opts.Thinking != "" && w.session.OpponentToMove()
	if thinking == w.thinking {
		return
	}
	w.thinking = thinking
	if thinking {
		ebiten.SetWindowTitle(w.opts.Title + " - " + w.opts.Thinking)
		return
	}
	ebiten.SetWindowTitle(w.opts.Title)
}

func (w *Window) Draw(screen *ebiten.Image) {
	img, err := w.session.Compose()
	if err != nil {
		w.logger.Error("compose frame failed", zap.Error(err))
		return
	}
	if w.screen == nil {
		w.screen = ebiten.NewImage(img.Bounds().Dx(), img.Bounds().Dy())
	}
	w.screen.WritePixels(img.Pix)
	screen.DrawImage(w.screen, nil)
}

func (w *Window) Layout(int, int) (int, int) {
	size := w.session.Size()
	return size, size
}
