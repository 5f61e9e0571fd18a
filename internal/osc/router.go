package osc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"

	goosc "github.com/hypebeast/go-osc/osc"
)

type HandlerFunc func(msg *goosc.Message)

type wildcardHandler struct {
	pattern *regexp.Regexp
	handler HandlerFunc
}

// Router dispatches inbound messages by address. An exact binding wins;
// otherwise every wildcard binding ('*' matches any run of characters) that
// matches is called in bind order.
type Router struct {
	mu        sync.RWMutex
	exact     map[string]HandlerFunc
	wildcards []wildcardHandler
	logger    *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{exact: make(map[string]HandlerFunc), logger: logger}
}

func (r *Router) Bind(address string, handler HandlerFunc) error {
	if !strings.HasPrefix(address, "/") {
		return fmt.Errorf("osc address %q must start with /", address)
	}
	if handler == nil {
		return errors.New("osc handler is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !strings.Contains(address, "*") {
		r.exact[address] = handler
		return nil
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(address), `\*`, ".*") + "$"
	r.wildcards = append(r.wildcards, wildcardHandler{pattern: regexp.MustCompile(expr), handler: handler})
	return nil
}

// Dispatch implements goosc.Dispatcher.
func (r *Router) Dispatch(packet goosc.Packet) {
	switch p := packet.(type) {
	case *goosc.Message:
		r.handle(p)
	case *goosc.Bundle:
		for _, m := range p.Messages {
			r.handle(m)
		}
		for _, b := range p.Bundles {
			r.Dispatch(b)
		}
	}
}

func (r *Router) handle(msg *goosc.Message) {
	r.mu.RLock()
	exact, ok := r.exact[msg.Address]
	var matched []HandlerFunc
	if !ok {
		for _, w := range r.wildcards {
			if w.pattern.MatchString(msg.Address) {
				matched = append(matched, w.handler)
			}
		}
	}
	r.mu.RUnlock()

	if ok {
		exact(msg)
		return
	}
	if len(matched) == 0 && r.logger != nil {
		r.logger.Debug("unhandled osc message", "address", msg.Address)
	}
	for _, h := range matched {
		h(msg)
	}
}

// Serve dispatches packets read from conn until ctx is cancelled.
func (r *Router) Serve(ctx context.Context, conn net.PacketConn) error {
	server := &goosc.Server{Dispatcher: r}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if r.logger != nil {
		r.logger.Info("osc listener started", "addr", conn.LocalAddr().String())
	}
	err := server.Serve(conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ListenAndServe listens on addr (host:port, UDP) and calls Serve.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("listen osc %s: %w", addr, err)
	}
	return r.Serve(ctx, conn)
}

// StringArg returns the i-th argument of msg when it is a string.
func StringArg(msg *goosc.Message, i int) (string, bool) {
	if i < 0 || i >= len(msg.Arguments) {
		return "", false
	}
	s, ok := msg.Arguments[i].(string)
	return s, ok
}
