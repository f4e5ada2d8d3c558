package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/studybat/internal/config"
	"github.com/sadopc/studybat/internal/notify"
	"github.com/sadopc/studybat/internal/store"
	"github.com/sadopc/studybat/internal/tracker"
	"github.com/sadopc/studybat/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "studybat")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	records := tracker.Open(s, s)
	app := tui.NewApp(records, s)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// The scheduler goroutine only posts messages; all record access stays on
	// the program's update loop.
	sched := notify.NewScheduler(time.Local)
	if _, err := sched.Every(cfg.CheckInterval, func() { p.Send(tui.AlertCheckMsg{}) }); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	log.Printf("studybat started, db=%s", cfg.DBPath)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
