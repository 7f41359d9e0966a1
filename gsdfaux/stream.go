package gsdfaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	interstella "github.com/ryry0/Interstella"
	"github.com/ryry0/Interstella/glrender"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

// StreamConfig configures a [FrameStreamer].
type StreamConfig struct {
	Width, Height int
	// FPS is the target frame rate. Frames that take longer than two frame
	// periods to render are dropped.
	FPS float32
	// Workers limits the goroutines rendering a frame. Zero uses GOMAXPROCS.
	Workers int
}

// Validate checks the stream size and frame rate.
func (cfg StreamConfig) Validate() error {
	var errs []error
	if cfg.Width <= 0 || cfg.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid stream size %dx%d", cfg.Width, cfg.Height))
	}
	if cfg.FPS <= 0 {
		errs = append(errs, errors.New("stream requires positive FPS"))
	}
	return errors.Join(errs...)
}

func (cfg StreamConfig) period() time.Duration {
	return time.Duration(float32(time.Second) / cfg.FPS)
}

// FrameStreamer is an [http.Handler] that renders a demo on the CPU and pushes
// PNG frames to browsers over a websocket. Plain HTTP requests get an index page
// with a canvas drawing the frames. Each connection renders its own frames
// starting at time zero.
type FrameStreamer struct {
	Demo   interstella.Demo
	Config StreamConfig
	// Logf logs connection events. Nil uses [log.Printf].
	Logf     func(format string, args ...any)
	upgrader websocket.Upgrader
}

// NewFrameStreamer validates its arguments and returns a ready to serve FrameStreamer.
func NewFrameStreamer(demo interstella.Demo, cfg StreamConfig) (*FrameStreamer, error) {
	err := cfg.Validate()
	if err == nil {
		err = demo.Config.Validate()
	}
	if err != nil {
		return nil, err
	}
	return &FrameStreamer{Demo: demo, Config: cfg}, nil
}

func (fs *FrameStreamer) logf(format string, args ...any) {
	if fs.Logf != nil {
		fs.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// ServeHTTP implements [http.Handler].
func (fs *FrameStreamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, streamIndex)
		return
	}
	conn, err := fs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fs.logf("upgrade: %s", err)
		return
	}
	defer conn.Close()
	fs.logf("streaming %q to %s", fs.Demo.Name, r.RemoteAddr)
	err = fs.stream(r.Context(), conn)
	if err != nil && !errors.Is(err, context.Canceled) {
		fs.logf("stream to %s: %s", r.RemoteAddr, err)
	}
	fs.logf("closed stream to %s", r.RemoteAddr)
}

func (fs *FrameStreamer) stream(ctx context.Context, conn *websocket.Conn) error {
	if err := fs.Config.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Reader: the client sends nothing, reading processes control frames and detects disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	period := fs.Config.period()
	frameTicker := time.NewTicker(period)
	pingTicker := time.NewTicker(streamPingPeriod)
	defer frameTicker.Stop()
	defer pingTicker.Stop()

	renderer := glrender.ImageRenderer{Workers: fs.Config.Workers}
	img := image.NewRGBA(image.Rect(0, 0, fs.Config.Width, fs.Config.Height))
	var err error
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pingTicker.C:
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait))
			if err != nil {
				return err
			}
			continue
		case <-frameTicker.C:
		}
		t := float32(time.Since(start).Seconds())
		frameCtx, frameCancel := context.WithTimeout(ctx, 2*period)
		err = renderer.Render(frameCtx, &fs.Demo.Config, img, t)
		frameCancel()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			continue // Frame dropped.
		} else if err != nil {
			return err
		}
		buf.Reset()
		err = enc.Encode(&buf, img)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		err = conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
		if err != nil {
			return err
		}
	}
}

const streamIndex = `<!DOCTYPE html>
<html>
<head><title>Interstella</title></head>
<body style="margin:0;background:#000">
<canvas id="view"></canvas>
<script>
const canvas = document.getElementById("view");
const ctx = canvas.getContext("2d");
const proto = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(proto + location.host + location.pathname);
ws.binaryType = "blob";
ws.onmessage = async (ev) => {
	const frame = await createImageBitmap(ev.data);
	canvas.width = frame.width;
	canvas.height = frame.height;
	ctx.drawImage(frame, 0, 0);
	frame.close();
};
</script>
</body>
</html>
`
