package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/deepscience/deepscience/internal/client"
	"github.com/deepscience/deepscience/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var serverURL string
	flag.StringVar(&serverURL, "server", "http://localhost:8080", "DeepScience server base URL")
	flag.Parse()

	// The TUI owns the terminal, so logs go nowhere visible; errors surface
	// through the status line instead.
	logger := zap.NewNop()

	api := client.New(serverURL, logger)
	m := tui.New(api)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
