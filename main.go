package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-generative/config"
	"go-generative/debug"
	"go-generative/midi"
	"go-generative/sequencer"
	"go-generative/theme"
	"go-generative/tui"
)

func main() {
	defaultPath, _ := config.ConfigPath()
	var (
		cfgPath  = flag.String("config", defaultPath, "path to config.yaml")
		debugLog = flag.Bool("debug", false, "write debug log ("+debug.Path()+", stderr when headless)")
		port     = flag.String("port", "", "MIDI output port (overrides config)")
		headless = flag.Duration("headless", 0, "print notes for this much simulated time instead of starting the UI")
		seed     = flag.Uint64("seed", 0, "master seed (overrides config)")
		initCfg  = flag.Bool("init", false, "write the effective config to -config and exit")
	)
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.MIDI.Port = *port
		case "seed":
			cfg.Engine.Seed = *seed
		}
	})

	if *initCfg {
		if err := cfg.SaveFile(*cfgPath); err != nil {
			log.Fatal(err)
		}
		fmt.Println("wrote", *cfgPath)
		return
	}

	if *headless > 0 {
		if *debugLog {
			debug.EnableWriter(os.Stderr)
		}
		if err := runHeadless(cfg, *headless); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *debugLog {
		if err := debug.Enable(); err != nil {
			log.Fatal(err)
		}
		defer debug.Disable()
	}
	if err := runTUI(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config, clock sequencer.Clock) (*sequencer.Engine, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	voices, err := cfg.VoiceConfigs()
	if err != nil {
		return nil, err
	}
	return sequencer.NewEngine(clock, params, voices, cfg.Options())
}

// runHeadless steps a manual clock through d and prints every note
func runHeadless(cfg *config.Config, d time.Duration) error {
	clock := sequencer.NewManualClock(0)
	engine, err := newEngine(cfg, clock)
	if err != nil {
		return err
	}

	step := cfg.Engine.Lookahead / 2
	for t := 0.0; t < d.Seconds(); t = clock.Advance(step) {
		events, err := engine.Update()
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("%8.3f  voice=%d  %8.2fHz  vel=%.2f  dur=%.3f\n",
				ev.Start, ev.Voice, ev.FrequencyHz, ev.Velocity, ev.Duration)
		}
	}

	st := engine.Stats()
	fmt.Fprintf(os.Stderr, "%d ticks, %d notes, %d dropped\n", st.Generated, st.Events, st.Dropped)
	return nil
}

func runTUI(cfg *config.Config) error {
	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "palette: %v", err)
	}
	th := theme.New(palette)

	clock := sequencer.NewWallClock()
	engine, err := newEngine(cfg, clock)
	if err != nil {
		return err
	}

	defer gomidi.CloseDriver()
	output := midi.NewOutput(clock, cfg.MIDI.BendRange, cfg.MIDI.BaseChannel)
	if cfg.MIDI.Port != "" {
		if send, err := midi.OpenPort(cfg.MIDI.Port); err == nil {
			output.SetSender(send)
		} else {
			debug.Log("main", "%v (waiting for port)", err)
		}
	}
	ports := midi.NewPortWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ports.Run(ctx)
	go output.Run(ctx)
	go engine.Run(ctx, output)

	fmt.Println("go-generative")
	fmt.Println("Connect MIDI devices any time - they'll be detected automatically")

	m := tui.NewModel(engine, ports, output, cfg.MIDI.Port, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
