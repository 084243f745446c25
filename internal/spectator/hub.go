// Package spectator lets other processes follow the game: an HTTP server
// with the current state and board picture, and a websocket relay that
// pushes every applied move.
package spectator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-desk/internal/game"
	"github.com/park285/cheese-desk/internal/render"
	"github.com/park285/cheese-desk/pkg/chessdto"
)

// Source is the read side of the rules adapter.
type Source interface {
	FEN() string
	UCIHistory() []string
	SANHistory() []string
	Pieces() map[game.Square]game.Piece
	Turn() game.Color
	CheckSquare() game.Square
	Material() (white, black int)
	Opening() (code, title string)
}

// Publisher receives relay events. Publish must not block.
type Publisher interface {
	Publish(ev chessdto.MoveEvent)
}

type SessionInfo struct {
	SessionUUID string
	Name        string
	Engine      string
	Human       game.Color
}

type HubOption func(*Hub)

func WithPublisher(p Publisher) HubOption {
	return func(h *Hub) {
		if p != nil {
			h.publishers = append(h.publishers, p)
		}
	}
}

// WithResultText sets the sentence stored with the finished state.
func WithResultText(fn func(game.Report) string) HubOption {
	return func(h *Hub) { h.resultText = fn }
}

func WithHubLogger(l *zap.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// Hub is a game.Observer that keeps the latest snapshot for the server.
// Observer calls come from the frame loop; readers may be on any goroutine.
type Hub struct {
	source     Source
	renderer   *render.Renderer
	info       SessionInfo
	publishers []Publisher
	resultText func(game.Report) string
	logger     *zap.Logger
	now        func() time.Time

	mu    sync.RWMutex
	state chessdto.SessionState
	frame render.Frame
}

func NewHub(source Source, renderer *render.Renderer, info SessionInfo, opts ...HubOption) *Hub {
	h := &Hub{
		source:   source,
		renderer: renderer,
		info:     info,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mu.Lock()
	h.refreshLocked(nil)
	h.state.Outcome = game.InProgress.String()
	h.state.Result = "*"
	h.mu.Unlock()
	return h
}

func (h *Hub) MoveApplied(rec game.MoveRecord) {
	mv := rec.Move
	h.mu.Lock()
	h.refreshLocked(&mv)
	ev := chessdto.MoveEvent{
		Type:        chessdto.EventMove,
		SessionUUID: h.info.SessionUUID,
		Ply:         rec.Ply,
		Side:        rec.Side.String(),
		Color:       rec.Color.String(),
		UCI:         mv.String(),
		SAN:         lastOf(h.state.MovesSAN),
		FEN:         h.state.FEN,
		ThinkMS:     rec.Think.Milliseconds(),
		At:          h.state.UpdatedAt,
	}
	h.mu.Unlock()
	h.publish(ev)
}

func (h *Hub) GameFinished(rep game.Report) {
	h.mu.Lock()
	h.refreshLocked(h.frame.LastMove)
	h.state.Finished = true
	h.state.Outcome = rep.Outcome.String()
	h.state.Result = rep.Outcome.PGNResult(rep.Human)
	if rep.Err != nil {
		h.state.Error = rep.Err.Error()
	}
	if h.resultText != nil {
		h.state.OutcomeText = h.resultText(rep)
		h.frame.Banner = h.state.OutcomeText
	}
	ev := chessdto.MoveEvent{
		Type:        chessdto.EventFinished,
		SessionUUID: h.info.SessionUUID,
		Ply:         rep.Plies,
		FEN:         h.state.FEN,
		Outcome:     h.state.Outcome,
		Result:      h.state.Result,
		At:          h.state.UpdatedAt,
	}
	h.mu.Unlock()
	h.logger.Info("spectator game finished", zap.String("outcome", ev.Outcome))
	h.publish(ev)
}

func (h *Hub) publish(ev chessdto.MoveEvent) {
	for _, p := range h.publishers {
		p.Publish(ev)
	}
}

// State returns a copy of the current snapshot.
func (h *Hub) State() chessdto.SessionState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := h.state
	st.MovesUCI = append([]string(nil), h.state.MovesUCI...)
	st.MovesSAN = append([]string(nil), h.state.MovesSAN...)
	return st
}

// BoardPNG renders the current snapshot.
func (h *Hub) BoardPNG(ctx context.Context) ([]byte, error) {
	h.mu.RLock()
	frame := h.frame
	h.mu.RUnlock()
	return h.renderer.RenderPNG(ctx, frame)
}

func (h *Hub) refreshLocked(last *game.Move) {
	white, black := h.source.Material()
	code, title := h.source.Opening()
	check := h.source.CheckSquare()

	st := &h.state
	st.SessionUUID = h.info.SessionUUID
	st.Name = h.info.Name
	st.Engine = h.info.Engine
	st.HumanColor = h.info.Human.String()
	st.SideToMove = h.source.Turn().String()
	st.FEN = h.source.FEN()
	st.MovesUCI = h.source.UCIHistory()
	st.MovesSAN = h.source.SANHistory()
	st.MoveCount = len(st.MovesUCI)
	st.Check = check.Valid()
	st.Material = chessdto.MaterialScore{White: white, Black: black}
	st.OpeningCode, st.OpeningTitle = code, title
	st.UpdatedAt = h.now()
	if last != nil {
		st.LastMove = last.String()
	}

	frame := render.NewFrame(h.source.Pieces())
	frame.Check = check
	if last != nil {
		mv := *last
		frame.LastMove = &mv
	}
	h.frame = frame
}

func lastOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
