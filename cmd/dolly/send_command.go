package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vrcdolly/dolly-agent/internal/logging"
	"github.com/vrcdolly/dolly-agent/internal/osc"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var localPort int

	sender := func() (*osc.Sender, error) {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return nil, err
		}
		port := cfg.OSCLocalPort()
		if localPort >= 0 {
			port = localPort
		}
		client, err := osc.NewClient(port, cfg.OSCRemoteHost(), cfg.OSCRemotePort())
		if err != nil {
			return nil, err
		}
		logger := logging.NewLogger(cfg.LogLevel(), cfg.LogFormat())
		return osc.NewSender(client, logging.WithComponent(logger, "osc")), nil
	}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single OSC command to VRChat",
	}
	cmd.PersistentFlags().IntVar(&localPort, "local-port", -1, "UDP port to send from (0 picks one; default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "play",
		Short: "Start playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sender()
			if err != nil {
				return err
			}
			return reportSent(cmd, osc.AddrPlay, s.Play())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "play-delayed <seconds>",
		Short: "Start playback after a delay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delay, err := strconv.ParseFloat(args[0], 64)
			if err != nil || delay < 0 {
				return fmt.Errorf("invalid delay %q", args[0])
			}
			s, err := sender()
			if err != nil {
				return err
			}
			return reportSent(cmd, osc.AddrPlayDelayed, s.PlayDelayed(delay))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Ask VRChat to export its paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sender()
			if err != nil {
				return err
			}
			return reportSent(cmd, osc.AddrExport, s.ExportPaths())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Push a dolly document to VRChat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := readDocument(args[0])
			if err != nil {
				return err
			}
			s, err := sender()
			if err != nil {
				return err
			}
			return reportSent(cmd, osc.AddrImport, s.PushPaths(paths))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "chatbox <message>",
		Short: "Write a message to the VRChat chatbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sender()
			if err != nil {
				return err
			}
			return reportSent(cmd, osc.AddrChatbox, s.Chatbox(strings.Join(args, " ")))
		},
	})

	return cmd
}

func reportSent(cmd *cobra.Command, address string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", address)
	return nil
}
