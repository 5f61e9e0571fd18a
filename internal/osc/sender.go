// Package osc speaks Open Sound Control over UDP with the real-time
// application: outbound playback and path commands, and an address router
// for inbound messages.
package osc

import (
	"fmt"
	"log/slog"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

const (
	AddrPlay        = "/dolly/Play"
	AddrPlayDelayed = "/dolly/PlayDelayed"
	AddrExport      = "/dolly/Export"
	AddrImport      = "/dolly/Import"
	AddrChatbox     = "/chatbox/input"
)

// Transport sends one OSC packet. *goosc.Client satisfies it.
type Transport interface {
	Send(packet goosc.Packet) error
}

// Commander is the fire-and-forget command set the agent exposes.
type Commander interface {
	Play() error
	PlayDelayed(seconds float64) error
	ExportPaths() error
	ImportPaths(document string) error
	Chatbox(message string) error
}

type Sender struct {
	transport Transport
	logger    *slog.Logger
}

// NewClient builds a UDP client for remoteHost:remotePort, sending from
// localPort on the loopback interface when localPort is positive.
func NewClient(localPort int, remoteHost string, remotePort int) (*goosc.Client, error) {
	client := goosc.NewClient(remoteHost, remotePort)
	if localPort > 0 {
		if err := client.SetLocalAddr("127.0.0.1", localPort); err != nil {
			return nil, fmt.Errorf("set osc local address: %w", err)
		}
	}
	return client, nil
}

func NewSender(transport Transport, logger *slog.Logger) *Sender {
	return &Sender{transport: transport, logger: logger}
}

func (s *Sender) Play() error {
	return s.send(AddrPlay, int32(1))
}

func (s *Sender) PlayDelayed(seconds float64) error {
	return s.send(AddrPlayDelayed, int32(1), float32(seconds))
}

// ExportPaths asks the application to emit its own paths.
func (s *Sender) ExportPaths() error {
	return s.send(AddrExport, int32(1))
}

// ImportPaths pushes a flattened JSON document to the application.
func (s *Sender) ImportPaths(document string) error {
	return s.send(AddrImport, document)
}

// PushPaths flattens paths and sends them with ImportPaths.
func (s *Sender) PushPaths(paths []dolly.Path) error {
	doc, err := dolly.MarshalDocument(paths)
	if err != nil {
		return fmt.Errorf("encode paths: %w", err)
	}
	return s.ImportPaths(doc)
}

func (s *Sender) Chatbox(message string) error {
	return s.send(AddrChatbox, message, int32(0), int32(0))
}

func (s *Sender) send(address string, args ...interface{}) error {
	msg := goosc.NewMessage(address, args...)
	if err := s.transport.Send(msg); err != nil {
		if s.logger != nil {
			s.logger.Warn("osc send failed", "address", address, "error", err)
		}
		return fmt.Errorf("send %s: %w", address, err)
	}
	if s.logger != nil {
		s.logger.Debug("osc message sent", "address", address, "args", len(args))
	}
	return nil
}
