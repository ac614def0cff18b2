package hls

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/livetv-cli/livetv/log"
)

// Client is the Engine implementation backed by HTTP playlist fetches.
type Client struct {
	cfg  Config
	emit func(Event)

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	loadCancel context.CancelFunc
	source     string
	media      Media
	levels     []Level
	current    int
	// parsed is set once ManifestParsed was emitted for the current source.
	parsed     bool
	destroyed  bool
}

// New creates an engine. emit receives every event until Destroy and must not
// call back into the engine.
func New(cfg Config, emit func(Event)) *Client {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:     cfg,
		emit:    emit,
		ctx:     ctx,
		cancel:  cancel,
		current: -1,
	}
}

func (c *Client) LoadSource(uri string) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.source = uri
	c.levels = nil
	c.parsed = false
	start := c.cfg.AutoStartLoad && c.media != nil
	c.mu.Unlock()

	if start {
		c.StartLoad()
	}
}

func (c *Client) AttachMedia(media Media) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.media = media
	start := c.cfg.AutoStartLoad && c.source != "" && c.loadCancel == nil
	loaded := len(c.levels) > 0
	ctx := c.ctx
	c.mu.Unlock()

	switch {
	case loaded:
		go c.attach(ctx)
	case start:
		c.StartLoad()
	}
}

func (c *Client) StartLoad() {
	c.mu.Lock()
	if c.destroyed || c.source == "" {
		c.mu.Unlock()
		return
	}

	if c.loadCancel != nil {
		c.loadCancel()
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.loadCancel = cancel
	uri := c.source
	c.mu.Unlock()

	log.Debugf("hls: loading %s", uri)
	go c.load(ctx, uri)
}

func (c *Client) RecoverMediaError() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	loaded := len(c.levels) > 0
	ctx := c.ctx
	c.mu.Unlock()

	if !loaded {
		c.StartLoad()
		return
	}

	log.Debug("hls: re-attaching media")
	go c.attach(ctx)
}

func (c *Client) SetCurrentLevel(index int) {
	c.mu.Lock()
	if c.destroyed || index == c.current || index < -1 || index >= len(c.levels) {
		c.mu.Unlock()
		return
	}
	c.current = index
	ctx := c.ctx
	c.mu.Unlock()

	go func() {
		if c.attach(ctx) {
			c.send(ctx, Event{Kind: LevelSwitched, Level: index})
		}
	}()
}

func (c *Client) CurrentLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Levels returns a copy of the parsed ladder in playlist order.
func (c *Client) Levels() []Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Level(nil), c.levels...)
}

// Destroy cancels in-flight requests and silences the engine. It is idempotent.
func (c *Client) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.destroyed = true
	c.cancel()
	c.media = nil
}

func (c *Client) load(ctx context.Context, uri string) {
	manifest, err := Probe(ctx, c.cfg.Client, uri)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.levels = manifest.Levels
	if c.current >= len(c.levels) {
		c.current = -1
	}
	current := c.current
	announce := !c.parsed
	c.parsed = true
	c.mu.Unlock()

	// reloads while recovering keep the ladder the session already has
	if announce {
		c.send(ctx, Event{Kind: ManifestParsed, Levels: append([]Level(nil), manifest.Levels...)})
	}

	if manifest.Master {
		first := manifest.Levels[0]
		if current >= 0 {
			first = manifest.Levels[current]
		}

		if err := probeLevel(ctx, c.cfg.Client, first); err != nil {
			var data *ErrorData
			if errors.As(err, &data) && data.Type == NetworkError && len(manifest.Levels) > 1 {
				data.Fatal = false
			}
			c.fail(ctx, err)
			if data == nil || data.Fatal {
				return
			}
		}
	}

	c.attach(ctx)
}

// attach points the media at the current rendition. It reports whether the media accepted it.
func (c *Client) attach(ctx context.Context) bool {
	c.mu.Lock()
	media := c.media
	levels := c.levels
	current := c.current
	source := c.source
	c.mu.Unlock()

	if media == nil || ctx.Err() != nil {
		return false
	}

	uri := source
	if current >= 0 && current < len(levels) {
		uri = levels[current].URI
	}

	limit := 0
	if c.cfg.CapLevelToPlayerSize && current < 0 {
		_, height := media.VideoSize()
		limit = capBitrate(levels, height)
	}

	if err := media.SetMaxBitrate(limit); err != nil {
		log.Warnf("hls: could not cap bitrate: %v", err)
	}

	if err := media.SetSource(uri); err != nil {
		c.fail(ctx, &ErrorData{Fatal: true, Type: MediaError, Details: "mediaAttachError", Err: err})
		return false
	}

	return true
}

func (c *Client) fail(ctx context.Context, err error) {
	var data *ErrorData
	if !errors.As(err, &data) {
		data = &ErrorData{Fatal: true, Type: OtherError, Details: "internalException", Err: err}
	}

	if ctx.Err() != nil {
		return
	}

	log.Warnf("hls: %v", data)
	c.send(ctx, Event{Kind: Error, Error: data})
}

// send delivers ev unless the engine was destroyed or ctx belongs to a superseded load.
func (c *Client) send(ctx context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed || ctx.Err() != nil || c.emit == nil {
		return
	}
	c.emit(ev)
}
