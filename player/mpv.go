package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/media"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV drives an mpv process over JSON-IPC.
// mpv starts idle; sources are loaded into the same window with loadfile.
type MPV struct {
	path       string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     *EventListener
	mu         sync.Mutex // serializes socket commands

	paused     atomic.Bool
	loaded     atomic.Bool
	fullscreen atomic.Bool

	subMu       sync.Mutex
	subscribers map[int]func(media.Event)
	nextID      int

	// File events are published only for the playlist entry of the last loadfile.
	entryMu  sync.Mutex
	entryID  int64
	expected int64
	awaiting bool
}

// NewMPV creates an MPV backend using the executable at path. It does not start the process.
func NewMPV(path string) *MPV {
	if path == "" {
		path = "mpv"
	}

	m := &MPV{
		path:        path,
		exited:      make(chan struct{}),
		subscribers: make(map[int]func(media.Event)),
	}
	m.paused.Store(true)
	return m
}

func (m *MPV) args() []string {
	return []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--user-agent=%s", constant.UserAgent),
		fmt.Sprintf("--force-media-title=%s", constant.LiveTV),
		"--force-window=yes",
		"--idle=yes",
		"--pause=yes",
	}
}

// Start launches mpv and connects the event listener.
func (m *MPV) Start() error {
	if m.IsRunning() {
		return nil
	}

	// os.TempDir is not /tmp on macOS
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Errorf("generate socket name: %w", err)
	}
	m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.LiveTV, randomBytes))

	m.cmd = exec.Command(m.path, m.args()...)

	// Own process group so a terminal signal does not take mpv down mid-write.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	m.exited = exited
	go func() {
		_ = m.cmd.Wait()
		close(exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.events = NewEventListener(m.socketPath, m.onEvent)
	if err := m.events.Start(); err != nil {
		return fmt.Errorf("mpv events: %w", err)
	}

	return nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// IsRunning reports whether the mpv process is alive.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" || m.cmd == nil {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

// Close shuts down mpv and removes the socket.
func (m *MPV) Close() error {
	if m.events != nil {
		m.events.Stop()
	}

	if !m.IsRunning() {
		return nil
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) Socket() string {
	return m.socketPath
}

func (m *MPV) set(property string, value any) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

func (m *MPV) Play() error {
	if err := m.set("pause", false); err != nil {
		return err
	}
	m.paused.Store(false)
	return nil
}

func (m *MPV) Pause() error {
	if err := m.set("pause", true); err != nil {
		return err
	}
	m.paused.Store(true)
	return nil
}

func (m *MPV) Paused() bool {
	return m.paused.Load()
}

// SetVolume maps [0, 1] onto mpv's 0-100 scale.
func (m *MPV) SetVolume(volume float64) error {
	return m.set("volume", volume*100)
}

func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted)
}

// SetSource replaces the current file, keeping the pause state.
func (m *MPV) SetSource(uri string) error {
	target, err := sanitizeMediaTarget(uri)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	m.beginEntry(true)
	reply, err := m.sendCommand("loadfile", target, "replace")
	if err != nil {
		return err
	}

	// mpv 0.38+ names the new entry in the reply
	if data, ok := reply.(map[string]any); ok {
		if id, ok := data["playlist_entry_id"].(float64); ok {
			m.expectEntry(int64(id))
		}
	}
	return nil
}

// Stop unloads the file and leaves mpv paused, so the next source waits for Play.
func (m *MPV) Stop() error {
	m.beginEntry(false)
	if err := m.Pause(); err != nil {
		return err
	}

	_, err := m.sendCommand("stop")
	return err
}

// SetMaxBitrate limits mpv's HLS variant selection. Zero picks the best variant.
func (m *MPV) SetMaxBitrate(bps int) error {
	if bps <= 0 {
		return m.set("hls-bitrate", "max")
	}
	return m.set("hls-bitrate", bps)
}

// VideoSize returns the window size in pixels, zero when unknown.
func (m *MPV) VideoSize() (width, height int) {
	w, err := m.getFloatProperty("osd-width")
	if err != nil {
		return 0, 0
	}

	h, err := m.getFloatProperty("osd-height")
	if err != nil {
		return 0, 0
	}

	return int(w), int(h)
}

func (m *MPV) SetTitle(title string) error {
	return m.set("force-media-title", sanitizeTitle(title))
}

func (m *MPV) RequestFullscreen() error {
	return m.set("fullscreen", true)
}

func (m *MPV) ExitFullscreen() error {
	return m.set("fullscreen", false)
}

func (m *MPV) IsFullscreen() bool {
	return m.fullscreen.Load()
}

func (m *MPV) Subscribe(fn func(media.Event)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *MPV) publish(ev media.Event) {
	m.subMu.Lock()
	subscribers := make([]func(media.Event), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subscribers {
		fn(ev)
	}
}

// beginEntry forgets the current file so its late events are dropped.
// awaiting means a loadfile follows and its start-file selects the next entry.
func (m *MPV) beginEntry(awaiting bool) {
	m.entryMu.Lock()
	defer m.entryMu.Unlock()

	m.loaded.Store(false)
	m.entryID = 0
	m.expected = 0
	m.awaiting = awaiting
}

// expectEntry records the entry id mpv assigned to the last loadfile.
func (m *MPV) expectEntry(id int64) {
	m.entryMu.Lock()
	defer m.entryMu.Unlock()

	if m.awaiting {
		m.expected = id
		return
	}

	// start-file was read before the reply; trust the reply
	if m.entryID != id {
		m.entryID = id
	}
}

// acceptEntry reports whether a file event belongs to the current entry.
// id is zero for events that do not carry one.
func (m *MPV) acceptEntry(name string, id int64) bool {
	m.entryMu.Lock()
	defer m.entryMu.Unlock()

	if name == "start-file" {
		if !m.awaiting || (m.expected != 0 && id != m.expected) {
			return false
		}

		m.entryID = id
		if id == 0 {
			m.entryID = -1
		}
		m.awaiting = false
		m.expected = 0
		return true
	}

	if m.entryID == 0 {
		return false
	}
	return id == 0 || m.entryID == -1 || id == m.entryID
}

func entryOf(data any) int64 {
	payload, _ := data.(map[string]any)
	id, _ := payload["playlist_entry_id"].(float64)
	return int64(id)
}

// onEvent translates mpv notifications into element events.
func (m *MPV) onEvent(name string, data any) {
	switch name {
	case "start-file", "file-loaded", "playback-restart", "end-file":
		if !m.acceptEntry(name, entryOf(data)) {
			log.Debugf("mpv: dropping %s of a previous file", name)
			return
		}
	}

	switch name {
	case "pause":
		paused, _ := data.(bool)
		m.paused.Store(paused)
		if paused {
			m.publish(media.Event{Kind: media.Paused})
		} else if m.loaded.Load() {
			m.publish(media.Event{Kind: media.Playing})
		}
	case "fullscreen":
		fullscreen, _ := data.(bool)
		m.fullscreen.Store(fullscreen)
		m.publish(media.Event{Kind: media.FullscreenChanged, Fullscreen: fullscreen})
	case "file-loaded":
		m.loaded.Store(true)
		if !m.paused.Load() {
			m.publish(media.Event{Kind: media.Playing})
		}
	case "playback-restart":
		m.publish(media.Event{Kind: media.DataReady})
	case "end-file":
		m.loaded.Store(false)
		payload, _ := data.(map[string]any)
		switch reason, _ := payload["reason"].(string); reason {
		case "error":
			detail, _ := payload["file_error"].(string)
			m.publish(media.Event{Kind: media.ElementError, Err: fmt.Errorf("end-file: %s", detail)})
		case "eof":
			m.publish(media.Event{Kind: media.Paused})
		}
	}
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand("get_property", name)
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
// Catalog entries are user supplied, so flag injection must be ruled out.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "rtmp", "rtsp":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle flattens a title to a single line.
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
