// ABOUTME: Entry point for the cue monitor TUI
// ABOUTME: Attaches to a cued diagnostic tap and streams events into the UI
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/soundcue/soundcue-go/internal/ui"
	"github.com/soundcue/soundcue-go/pkg/cue"
)

var tapURL = flag.String("tap", "", "Tap websocket URL (default ws://localhost:8917/tap or $SOUNDCUE_TAP)")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	url := *tapURL
	if url == "" {
		url = os.Getenv("SOUNDCUE_TAP")
	}
	if url == "" {
		url = "ws://localhost:8917/tap"
	}

	p := tea.NewProgram(ui.NewModel(url))

	go feedEvents(p, url)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "cuemon: %v\n", err)
		os.Exit(1)
	}
}

// feedEvents keeps a tap connection alive, pushing events into the UI
// and reconnecting with a short backoff when it drops
func feedEvents(p *tea.Program, url string) {
	for {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			p.Send(ui.ConnMsg{Connected: false, Err: err.Error()})
			time.Sleep(2 * time.Second)
			continue
		}

		p.Send(ui.ConnMsg{Connected: true})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				p.Send(ui.ConnMsg{Connected: false, Err: err.Error()})
				break
			}

			var ev cue.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			p.Send(ui.EventMsg(ev))
		}

		conn.Close()
		time.Sleep(time.Second)
	}
}
