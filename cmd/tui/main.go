package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"noodlemap/internal/tui"
	"noodlemap/internal/tui/config"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		fmt.Println("Using default configuration...")
		cfg = config.Default()
	}

	app := tui.New(cfg)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
