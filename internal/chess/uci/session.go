package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReadyTimeout  = 4 * time.Second
	defaultSearchGrace   = 2 * time.Second
	newGameRetryAttempts = 3
	newGameRetryDelay    = 150 * time.Millisecond
	quitWait             = 500 * time.Millisecond
	lineBuffer           = 256
)

// ErrEngineExited is returned once the engine closed its output.
var ErrEngineExited = errors.New("engine exited")

// Command locates the engine binary.
type Command struct {
	Path string
	Args []string
	// Env is appended to the current environment.
	Env []string
}

// Session owns one engine process speaking UCI over stdin/stdout.
//
// A single goroutine reads stdout into a channel. Exchanges (handshake,
// option changes, searches) hold convMu so their replies do not interleave.
type Session struct {
	cmd    *exec.Cmd
	logger *zap.Logger
	name   string

	writeMu sync.Mutex
	stdin   io.WriteCloser

	lines   chan string
	readErr error
	stopped chan struct{}

	convMu sync.Mutex
	// owed counts bestmove replies of searches abandoned after "stop";
	// their output is skipped when it finally arrives.
	owed int

	closeOnce sync.Once
	closeErr  error
}

// NewSession starts the engine, completes the uci/isready handshake and
// applies opt. The process lives until Close or until ctx is cancelled.
func NewSession(ctx context.Context, command Command, opt Options, logger *zap.Logger) (*Session, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(command.Path) == "" {
		return nil, fmt.Errorf("engine path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.CommandContext(ctx, command.Path, command.Args...)
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	s := &Session{
		cmd:     cmd,
		logger:  logger.With(zap.String("engine", command.Path)),
		stdin:   stdin,
		lines:   make(chan string, lineBuffer),
		stopped: make(chan struct{}),
	}
	go s.pump(stdout)

	if err := s.handshake(ctx, opt); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Name is the engine's "id name", empty when it did not announce one.
func (s *Session) Name() string { return s.name }

func (s *Session) pump(r io.Reader) {
	defer close(s.lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		select {
		case s.lines <- strings.TrimSpace(sc.Text()):
		case <-s.stopped:
			return
		}
	}
	s.readErr = sc.Err()
}

// next returns the next line that belongs to the current exchange.
func (s *Session) next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				if s.readErr != nil {
					return "", fmt.Errorf("%w: %v", ErrEngineExited, s.readErr)
				}
				return "", ErrEngineExited
			}
			if s.owed > 0 {
				if strings.HasPrefix(line, "bestmove") {
					s.owed--
				}
				if strings.HasPrefix(line, "bestmove") || strings.HasPrefix(line, "info") {
					continue
				}
			}
			return line, nil
		}
	}
}

// await reads until a line starts with prefix.
func (s *Session) await(ctx context.Context, prefix string) error {
	for {
		line, err := s.next(ctx)
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, prefix) {
			return nil
		}
	}
}

func (s *Session) send(lines ...string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.stdin == nil {
		return io.ErrClosedPipe
	}
	for _, line := range lines {
		if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handshake(ctx context.Context, opt Options) error {
	s.convMu.Lock()
	defer s.convMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()

	if err := s.send("uci"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	for {
		line, err := s.next(ctx)
		if err != nil {
			return fmt.Errorf("wait uciok: %w", err)
		}
		if name, ok := strings.CutPrefix(line, "id name "); ok {
			s.name = strings.TrimSpace(name)
		}
		if line == "uciok" {
			break
		}
	}
	if err := s.send(opt.lines()...); err != nil {
		return fmt.Errorf("apply options: %w", err)
	}
	return s.syncReady(ctx)
}

// syncReady sends isready and waits for readyok. convMu must be held.
func (s *Session) syncReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultReadyTimeout)
	defer cancel()
	if err := s.send("isready"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := s.await(ctx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

func (s *Session) EnsureReady(ctx context.Context) error {
	s.convMu.Lock()
	defer s.convMu.Unlock()
	return s.syncReady(ctx)
}

// SetOption sends one setoption command and waits for the engine to settle.
func (s *Session) SetOption(ctx context.Context, name string, value any) error {
	s.convMu.Lock()
	defer s.convMu.Unlock()
	if err := s.send(setOptionLine(name, value)); err != nil {
		return fmt.Errorf("set option %s: %w", name, err)
	}
	return s.syncReady(ctx)
}

// NewGame resets the engine's game state. Engines may need a moment after
// ucinewgame, so the readiness check is retried a few times.
func (s *Session) NewGame(ctx context.Context) error {
	s.convMu.Lock()
	defer s.convMu.Unlock()

	if err := s.send("ucinewgame"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	var err error
	for attempt := 1; attempt <= newGameRetryAttempts; attempt++ {
		if err = s.syncReady(ctx); err == nil || errors.Is(err, ErrEngineExited) {
			return err
		}
		s.logger.Warn("engine not ready after ucinewgame", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(newGameRetryDelay):
		}
	}
	return err
}

type SearchRequest struct {
	FEN    string
	Moves  []string
	Limits Limits
}

type SearchResponse struct {
	Candidates []Candidate
	BestMove   string
}

// Search runs one go command and collects the MultiPV lines until
// bestmove. The read deadline comes from req.Limits; on expiry or
// cancellation the engine is told to stop and its late reply is skipped
// by the next exchange.
func (s *Session) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	goCmd, err := req.Limits.GoCommand()
	if err != nil {
		return SearchResponse{}, err
	}

	s.convMu.Lock()
	defer s.convMu.Unlock()

	position := positionLine(req.FEN, req.Moves)
	if err := s.send(position, goCmd); err != nil {
		return SearchResponse{}, fmt.Errorf("send search: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, req.Limits.deadline())
	defer cancel()

	found := candidateSet{}
	for {
		line, err := s.next(ctx)
		if err != nil {
			s.abandon(position, goCmd, err)
			return SearchResponse{}, fmt.Errorf("read search: %w", err)
		}
		switch {
		case strings.HasPrefix(line, "info "):
			if info, ok := parseInfo(line); ok {
				found.add(info)
			}
		case strings.HasPrefix(line, "bestmove"):
			return SearchResponse{Candidates: found.ordered(), BestMove: bestMoveOf(line)}, nil
		}
	}
}

func (s *Session) abandon(position, goCmd string, cause error) {
	s.logger.Warn("search abandoned",
		zap.String("position", position),
		zap.String("go", goCmd),
		zap.Error(cause),
	)
	if errors.Is(cause, ErrEngineExited) {
		return
	}
	if err := s.send("stop"); err == nil {
		s.owed++
	}
}

// Close asks the engine to quit, waits briefly, then kills it.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.send("quit")
		s.writeMu.Lock()
		if s.stdin != nil {
			_ = s.stdin.Close()
			s.stdin = nil
		}
		s.writeMu.Unlock()

		exited := make(chan error, 1)
		go func() { exited <- s.cmd.Wait() }()
		var err error
		select {
		case err = <-exited:
		case <-time.After(quitWait):
			_ = s.cmd.Process.Kill()
			err = <-exited
		}
		close(s.stopped)

		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			s.closeErr = err
		}
	})
	return s.closeErr
}
