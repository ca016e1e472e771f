// Command invaders-term plays Space Invasion in a terminal, either on a
// local world or against a game server.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	server := flag.String("server", "", "Game server websocket URL, e.g. ws://localhost:8080/ws (empty plays locally)")
	session := flag.String("session", "", "Session ID to join (empty creates one)")
	name := flag.String("name", "", "Pilot name")
	keys := flag.String("keys", "", "Key bindings, e.g. left=j,right=l,fire=k")
	logPath := flag.String("log", "", "Write logs to this file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *server != "" {
		cfg.Server = *server
	}
	if *session != "" {
		cfg.Session = *session
	}
	if *name != "" {
		cfg.Name = *name
	}
	km, err := cfg.keyMap(*keys)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// the screen owns the terminal, so logs go to a file or nowhere
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorDefault).
		Foreground(tcell.ColorWhite))
	screen.Clear()

	if cfg.Server == "" {
		newLocalGame(screen, km, cfg).run()
		screen.Fini()
		return
	}

	g, err := dialRemote(screen, km, cfg.Server, cfg.Session, cfg.Name)
	if err == nil {
		err = g.run()
	}
	screen.Fini()
	if err != nil {
		log.Printf("remote: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
