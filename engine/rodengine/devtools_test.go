package rodengine

// Notes:
// - A minimal in-process DevTools endpoint stands in for Chrome: every
//   command gets an empty result except the few whose ids rod reads back,
//   and Page.close is followed by Target.targetDestroyed as Chrome does.
// - The browser is connected directly over the control URL, so no process
//   is launched and killLauncher is never reached.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/go-rod/rod"
	"github.com/gorilla/websocket"

	"github.com/alnah/go-snaphtml/engine"
)

type devTools struct {
	mu      sync.Mutex
	methods []string
	conns   []*websocket.Conn
}

func (d *devTools) called(method string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Contains(d.methods, method)
}

func (d *devTools) serve(w http.ResponseWriter, r *http.Request) {
	var upgrader websocket.Upgrader
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()

	var writeMu sync.Mutex
	send := func(v any) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteJSON(v)
	}

	for {
		var m struct {
			ID        int64  `json:"id"`
			Method    string `json:"method"`
			SessionID string `json:"sessionId"`
		}
		if err := conn.ReadJSON(&m); err != nil {
			return
		}
		d.mu.Lock()
		d.methods = append(d.methods, m.Method)
		d.mu.Unlock()

		result := map[string]any{}
		switch m.Method {
		case "Target.createBrowserContext":
			result["browserContextId"] = "CTX1"
		case "Target.createTarget":
			result["targetId"] = "T1"
		case "Target.attachToTarget":
			result["sessionId"] = "S1"
		}
		send(map[string]any{"id": m.ID, "result": result, "sessionId": m.SessionID})

		if m.Method == "Page.close" {
			send(map[string]any{"method": "Target.targetDestroyed", "params": map[string]any{"targetId": "T1"}})
		}
	}
}

func (d *devTools) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.conns {
		_ = c.Close()
	}
}

// connectFake returns a browser wired to a fake DevTools endpoint.
func connectFake(t *testing.T) (*browser, *devTools) {
	t.Helper()

	d := &devTools{}
	srv := httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(func() {
		d.close()
		srv.Close()
	})

	rb := rod.New().ControlURL("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err := rb.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return &browser{browser: rb}, d
}

// ---------------------------------------------------------------------------
// Teardown after the opening context ended
// ---------------------------------------------------------------------------

func TestBrowserContext_CloseAfterOpeningContextCanceled(t *testing.T) {
	t.Parallel()

	b, d := connectFake(t)

	ctx, cancel := context.WithCancel(context.Background())
	bc, err := b.NewContext(ctx, engine.ContextOptions{Width: 10, Height: 10, DeviceScaleFactor: 1})
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	cancel()

	if err := bc.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if !d.called("Target.disposeBrowserContext") {
		t.Error("browser context was not disposed")
	}
}

func TestPage_CloseAfterOpeningContextCanceled(t *testing.T) {
	t.Parallel()

	b, d := connectFake(t)

	bc, err := b.NewContext(context.Background(), engine.ContextOptions{Width: 10, Height: 10, DeviceScaleFactor: 1})
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p, err := bc.NewPage(ctx)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	cancel()

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if !d.called("Page.close") {
		t.Error("page was not closed")
	}
}
