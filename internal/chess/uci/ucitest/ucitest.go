// Package ucitest provides a scripted UCI engine that runs inside the test
// binary through the helper-process pattern.
//
// A test package declares
//
//	func TestHelperProcess(t *testing.T) { ucitest.Main() }
//
// and starts engines with ucitest.Command.
package ucitest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-desk/internal/chess/uci"
)

const (
	envHelper = "CHEESE_UCI_HELPER"
	envBest   = "CHEESE_UCI_BEST"
	envMode   = "CHEESE_UCI_MODE"
	envLog    = "CHEESE_UCI_LOG"
)

type Mode string

const (
	// ModeNormal answers every go with two MultiPV lines and a bestmove.
	ModeNormal Mode = "normal"
	// ModeSilent never answers go.
	ModeSilent Mode = "silent"
	// ModeNoMove answers go with "bestmove (none)".
	ModeNoMove Mode = "nomove"
	// ModeNoHandshake never sends uciok.
	ModeNoHandshake Mode = "nohandshake"
	// ModeLateFirst holds the first go until "stop" and then answers it
	// with a2a3. Later searches answer normally.
	ModeLateFirst Mode = "latefirst"
)

type Script struct {
	Mode Mode
	// BestMove defaults to e2e4.
	BestMove string
	// LogPath receives every command the engine read, one per line.
	LogPath string
}

// Command re-executes the test binary as a fake engine.
func Command(s Script) uci.Command {
	mode := s.Mode
	if mode == "" {
		mode = ModeNormal
	}
	best := s.BestMove
	if best == "" {
		best = "e2e4"
	}
	return uci.Command{
		Path: os.Args[0],
		Args: []string{"-test.run=^TestHelperProcess$", "--"},
		Env: []string{
			envHelper + "=1",
			envMode + "=" + string(mode),
			envBest + "=" + best,
			envLog + "=" + s.LogPath,
		},
	}
}

// Main runs the fake engine when the process was started by Command and
// returns immediately otherwise.
func Main() {
	if os.Getenv(envHelper) != "1" {
		return
	}
	var logw io.Writer = io.Discard
	if p := os.Getenv(envLog); p != "" {
		if f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			defer f.Close()
			logw = f
		}
	}
	Run(os.Stdin, os.Stdout, logw, Mode(os.Getenv(envMode)), os.Getenv(envBest))
	os.Exit(0)
}

// Run serves the UCI dialogue on in/out until quit or EOF.
func Run(in io.Reader, out io.Writer, logw io.Writer, mode Mode, best string) {
	sc := bufio.NewScanner(in)
	held := false
	searches := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fmt.Fprintln(logw, line)
		switch {
		case line == "uci":
			if mode == ModeNoHandshake {
				continue
			}
			fmt.Fprintln(out, "id name FakeFish 1.0")
			fmt.Fprintln(out, "id author cheese")
			fmt.Fprintln(out, "option name Skill Level type spin default 20 min 0 max 20")
			fmt.Fprintln(out, "uciok")
		case line == "isready":
			fmt.Fprintln(out, "readyok")
		case line == "stop":
			if held {
				held = false
				fmt.Fprintln(out, "info depth 1 score cp -90 pv a2a3")
				fmt.Fprintln(out, "bestmove a2a3")
			}
		case strings.HasPrefix(line, "go"):
			searches++
			switch {
			case mode == ModeSilent:
				continue
			case mode == ModeLateFirst && searches == 1:
				held = true
			case mode == ModeNoMove:
				fmt.Fprintln(out, "bestmove (none)")
			default:
				time.Sleep(5 * time.Millisecond)
				fmt.Fprintf(out, "info depth 8 multipv 1 score cp 31 pv %s e7e5\n", best)
				fmt.Fprintln(out, "info depth 8 multipv 2 score cp 12 pv d2d4 d7d5")
				fmt.Fprintf(out, "bestmove %s ponder e7e5\n", best)
			}
		case line == "quit":
			return
		}
	}
}
