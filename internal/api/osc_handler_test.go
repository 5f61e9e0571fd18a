package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/osc"
)

func TestOSCCommands(t *testing.T) {
	env := newTestEnv(t)
	env.manager.SetPaths([]dolly.Path{fillPath(2, 0)})

	tests := []struct {
		target string
		body   string
		call   string
	}{
		{"/osc/play", "", "play"},
		{"/osc/play-delayed", `{"delay": 2.5}`, "play-delayed"},
		{"/osc/export", "", "export"},
		{"/osc/import", "", "import"},
		{"/osc/chatbox", `{"message": "rolling"}`, "chatbox"},
	}

	for _, tt := range tests {
		rr := env.do(t, http.MethodPost, tt.target, tt.body)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d (%s)", tt.target, rr.Code, rr.Body.String())
		}
		if last := env.osc.calls[len(env.osc.calls)-1]; last != tt.call {
			t.Errorf("%s called %q, want %q", tt.target, last, tt.call)
		}
	}

	if env.osc.delay != 2.5 {
		t.Errorf("delay = %v, want 2.5", env.osc.delay)
	}
	if env.osc.message != "rolling" {
		t.Errorf("message = %q", env.osc.message)
	}
	points, err := dolly.ParsePoints([]byte(env.osc.document), dolly.FormatJSON)
	if err != nil || len(points) != 2 {
		t.Errorf("pushed document = %q, err %v", env.osc.document, err)
	}
}

func TestOSCValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/osc/import", "")
	expectCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	rr = env.do(t, http.MethodPost, "/osc/play-delayed", `{"delay": -1}`)
	expectCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	rr = env.do(t, http.MethodPost, "/osc/chatbox", `{"message": "  "}`)
	expectCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	if len(env.osc.calls) != 0 {
		t.Errorf("rejected requests reached the transport: %v", env.osc.calls)
	}
}

func TestOSCTransportError(t *testing.T) {
	env := newTestEnv(t)
	env.osc.err = errors.New("connection refused")

	rr := env.do(t, http.MethodPost, "/osc/play", "")
	expectCode(t, rr, http.StatusBadGateway, "TRANSPORT_ERROR")
}

func TestOSCDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.OSC = nil
	env.router = NewRouter(env.cfg)

	rr := env.do(t, http.MethodPost, "/osc/play", "")
	expectCode(t, rr, http.StatusServiceUnavailable, "OSC_DISABLED")
}

func TestOSCResponseNamesAddress(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/osc/export", "")
	body := decodeJSONBody(t, rr)
	if body["address"] != osc.AddrExport {
		t.Errorf("address = %v, want %s", body["address"], osc.AddrExport)
	}
}
