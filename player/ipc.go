package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command []any `json:"command"`
}

// ipcResponse is the JSON structure received from mpv's IPC socket.
type ipcResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 1 * time.Second
)

// sendCommand sends a command, retrying transient connection errors.
func (m *MPV) sendCommand(command ...any) (any, error) {
	if !m.IsRunning() {
		return nil, ErrNotRunning
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		result, err := doSendCommand(m.socketPath, command)
		if err == nil {
			return result, nil
		}

		var mpvErr *commandError
		if errors.As(err, &mpvErr) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// commandError is an error reported by mpv itself; retrying will not help.
type commandError struct {
	command any
	reason  string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("mpv %v: %s", e.command, e.reason)
}

// doSendCommand performs a single IPC command attempt.
func doSendCommand(socketPath string, command []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// mpv expects newline-delimited JSON
	if _, err = conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// events broadcast to every client may arrive before the reply
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		if isEvent(line) {
			continue
		}
		return parseResponse(line, command)
	}
}

func isEvent(line []byte) bool {
	var probe struct {
		Event string `json:"event"`
	}
	return json.Unmarshal(line, &probe) == nil && probe.Event != ""
}

func parseResponse(line []byte, command []any) (any, error) {
	var resp ipcResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if resp.Error != "" && resp.Error != "success" {
		return nil, &commandError{command: command[0], reason: resp.Error}
	}

	return resp.Data, nil
}
