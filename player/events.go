package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/livetv-cli/livetv/log"
)

// EventCallback receives property changes (name, value) and plain events (event name, raw payload).
type EventCallback func(name string, data any)

// observed are the properties mpv reports on the event connection.
var observed = []string{"pause", "fullscreen"}

// EventListener keeps a dedicated IPC connection for mpv events.
// Property observers are bound to the connection that registered them, so
// registration and reading share one connection.
type EventListener struct {
	socketPath string
	callback   EventCallback

	mu        sync.Mutex
	conn      net.Conn
	listening bool
}

func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start registers the observers and begins the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if err != nil {
			conn.Close()
			return fmt.Errorf("marshal observe %s: %w", name, err)
		}

		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn)

	log.Infof("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the event connection. It is idempotent.
func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	el.listening = false
	_ = el.conn.Close()
}

func (el *EventListener) readLoop(conn net.Conn) {
	defer func() {
		el.mu.Lock()
		el.listening = false
		el.mu.Unlock()
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			log.Debugf("event listener stopped: %v", err)
			return
		}

		el.processEvent(line)
	}
}

// processEvent dispatches a single mpv event line. Command replies are skipped.
func (el *EventListener) processEvent(line []byte) {
	var event map[string]any
	if err := json.Unmarshal(line, &event); err != nil || el.callback == nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok {
		return
	}

	if eventType == "property-change" {
		if name, _ := event["name"].(string); name != "" {
			el.callback(name, event["data"])
		}
		return
	}

	el.callback(eventType, event)
}
