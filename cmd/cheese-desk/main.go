package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "cheese-desk",
		Usage: "play chess against a UCI engine on the desktop",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
			&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "path to the UCI engine binary"},
			&cli.IntFlag{Name: "skill", Aliases: []string{"s"}, Usage: "engine Skill Level (0-20)"},
			&cli.StringFlag{Name: "preset", Usage: "strength preset (level1..level8, beginner, expert...)"},
			&cli.IntFlag{Name: "movetime", Usage: "engine think time in milliseconds"},
			&cli.StringFlag{Name: "color", Aliases: []string{"c"}, Usage: "your colour: white or black"},
			&cli.IntFlag{Name: "size", Usage: "board edge in pixels, a multiple of 8"},
			&cli.StringFlag{Name: "fen", Usage: "start from this position"},
			&cli.StringFlag{Name: "book", Usage: "polyglot opening book"},
			&cli.BoolFlag{Name: "coordinates", Usage: "draw file and rank labels"},
			&cli.BoolFlag{Name: "dialog", Usage: "show the result in a dialog when the game ends"},
			&cli.StringFlag{Name: "spectator", Usage: "serve /state.json and /board.png on this address"},
			&cli.StringFlag{Name: "relay", Usage: "push moves to this websocket URL"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cheese-desk:", err)
		os.Exit(1)
	}
}
