package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
	"github.com/vrcdolly/dolly-agent/internal/osc"
)

func oscPlayHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !oscEnabled(w, cfg) {
			return
		}
		writeOSCResult(w, cfg, osc.AddrPlay, cfg.OSC.Play())
	}
}

func oscPlayDelayedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !oscEnabled(w, cfg) {
			return
		}
		var req PlayDelayedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Delay < 0 {
			WriteError(w, http.StatusBadRequest, "delay must not be negative", "BAD_REQUEST")
			return
		}
		writeOSCResult(w, cfg, osc.AddrPlayDelayed, cfg.OSC.PlayDelayed(req.Delay))
	}
}

func oscExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !oscEnabled(w, cfg) {
			return
		}
		writeOSCResult(w, cfg, osc.AddrExport, cfg.OSC.ExportPaths())
	}
}

// oscImportHandler pushes the current collection to the application.
func oscImportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !oscEnabled(w, cfg) {
			return
		}
		paths := cfg.Manager.Paths()
		if len(paths) == 0 {
			WriteError(w, http.StatusBadRequest, "no paths to send", "BAD_REQUEST")
			return
		}
		doc, err := dolly.MarshalDocument(paths)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to encode document", "INTERNAL_ERROR")
			return
		}
		writeOSCResult(w, cfg, osc.AddrImport, cfg.OSC.ImportPaths(doc))
	}
}

func oscChatboxHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !oscEnabled(w, cfg) {
			return
		}
		var req ChatboxRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			WriteError(w, http.StatusBadRequest, "message is required", "BAD_REQUEST")
			return
		}
		writeOSCResult(w, cfg, osc.AddrChatbox, cfg.OSC.Chatbox(req.Message))
	}
}

func oscEnabled(w http.ResponseWriter, cfg ServerConfig) bool {
	if cfg.OSC == nil {
		WriteError(w, http.StatusServiceUnavailable, "osc transport is not configured", "OSC_DISABLED")
		return false
	}
	return true
}

func writeOSCResult(w http.ResponseWriter, cfg ServerConfig, address string, err error) {
	if err != nil {
		cfg.Logger.Warn("osc command failed", "address", address, "error", err)
		WriteError(w, http.StatusBadGateway, err.Error(), "TRANSPORT_ERROR")
		return
	}
	WriteJSON(w, http.StatusOK, OSCResponse{Status: "sent", Address: address})
}
