package main

import (
	"fmt"
	"os"
	"slices"
	"time"

	"go-generative/midi"
	"go-generative/sequencer"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "scale":
		if len(os.Args) < 3 {
			usage()
			return
		}
		name := "C Major Pentatonic"
		if len(os.Args) > 3 {
			name = os.Args[3]
		}
		playScale(os.Args[2], name)
	case "poll":
		pollPorts()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List MIDI output ports")
	fmt.Println("  scale <port> [name]  - Play one octave of a scale (microtones via pitch bend)")
	fmt.Println("  poll                 - Watch for port changes")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ch := make(chan []string, 1)
	go func() {
		ch <- midi.OutPortNames()
	}()

	select {
	case names := <-ch:
		for i, n := range names {
			fmt.Printf("  %d: %s\n", i, n)
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func playScale(port, scaleName string) {
	send, err := midi.OpenPort(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer gomidi.CloseDriver()

	scale, err := sequencer.ScaleByName(scaleName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Playing %s on %s\n", scale.Name, port)
	for d := 0; d < scale.Len(); d++ {
		hz, _ := sequencer.PitchToHz(sequencer.DefaultRoot, scale, d, 0, 0)
		p, err := midi.FrequencyToPitch(hz, midi.DefaultBendRange)
		if err != nil {
			fmt.Printf("  degree %d: %v\n", d, err)
			continue
		}
		fmt.Printf("  degree %d: %8.2f Hz -> key %3d bend %+5d\n", d, hz, p.Key, p.Bend)

		send(gomidi.Pitchbend(0, p.Bend))
		send(gomidi.NoteOn(0, p.Key, 100))
		time.Sleep(300 * time.Millisecond)
		send(gomidi.NoteOff(0, p.Key))
	}
	send(gomidi.Pitchbend(0, 0))
}

func pollPorts() {
	fmt.Println("Polling for MIDI port changes (Ctrl+C to stop)...")
	fmt.Println("")

	var last []string
	for {
		names := midi.OutPortNames()
		if !slices.Equal(names, last) {
			fmt.Printf("[%s] %d ports:\n", time.Now().Format("15:04:05"), len(names))
			for _, n := range names {
				fmt.Printf("  %s\n", n)
			}
			last = names
		}
		time.Sleep(time.Second)
	}
}
