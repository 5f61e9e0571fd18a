package preview

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func decodeFrame(t *testing.T, data []byte) Frame {
	t.Helper()
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func staticSource(paths ...dolly.Path) func() []dolly.Path {
	return func() []dolly.Path { return paths }
}

func TestHubHasViewers(t *testing.T) {
	h := NewHub(nil, nil)
	if h.HasViewers() {
		t.Fatal("new hub should have no viewers")
	}

	_, detach := h.Attach()
	if !h.HasViewers() {
		t.Fatal("expected a viewer after Attach")
	}

	detach()
	detach()
	if h.HasViewers() {
		t.Fatal("expected no viewers after detach")
	}
}

func TestHubAttachGetsCurrentState(t *testing.T) {
	h := NewHub(staticSource(dolly.NewPath(0)), nil)

	frames, detach := h.Attach()
	defer detach()

	select {
	case data := <-frames:
		f := decodeFrame(t, data)
		if len(f.Paths) != 1 {
			t.Errorf("got %d paths, want 1", len(f.Paths))
		}
	default:
		t.Fatal("expected the current collection on attach")
	}
}

func TestHubAttachWithoutSource(t *testing.T) {
	h := NewHub(nil, nil)
	frames, detach := h.Attach()
	defer detach()

	select {
	case <-frames:
		t.Fatal("no frame expected without a source")
	default:
	}
}

func TestHubPublishReachesViewers(t *testing.T) {
	h := NewHub(nil, nil)
	h.Publish([]dolly.Path{dolly.NewPath(0)})

	frames, detach := h.Attach()
	defer detach()

	h.Publish([]dolly.Path{dolly.NewPath(0), dolly.NewPath(1)})

	select {
	case data := <-frames:
		f := decodeFrame(t, data)
		if f.Seq != 2 || len(f.Paths) != 2 {
			t.Errorf("frame seq=%d paths=%d, want 2 and 2", f.Seq, len(f.Paths))
		}
	default:
		t.Fatal("expected a frame after Publish")
	}
}

func TestHubSlowViewerKeepsNewest(t *testing.T) {
	h := NewHub(nil, nil)
	frames, detach := h.Attach()
	defer detach()

	for i := 0; i < clientBuffer*3; i++ {
		h.Publish(make([]dolly.Path, i))
	}

	var last Frame
	for {
		select {
		case data := <-frames:
			last = decodeFrame(t, data)
			continue
		default:
		}
		break
	}
	if last.Seq != uint64(clientBuffer*3) {
		t.Errorf("last seq = %d, want %d", last.Seq, clientBuffer*3)
	}
}

func TestHubServeHTTP(t *testing.T) {
	h := NewHub(staticSource(dolly.NewPath(0)), nil)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readData := func() Frame {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if strings.HasPrefix(line, "data: ") {
				return decodeFrame(t, []byte(strings.TrimSpace(strings.TrimPrefix(line, "data: "))))
			}
		}
	}

	if f := readData(); len(f.Paths) != 1 {
		t.Errorf("first frame has %d paths, want 1", len(f.Paths))
	}

	h.Publish([]dolly.Path{dolly.NewPath(0), dolly.NewPath(1)})
	if f := readData(); len(f.Paths) != 2 {
		t.Errorf("second frame has %d paths, want 2", len(f.Paths))
	}
}
