package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"io"
	"net/http"
	"parcel-status-relay/workers/tracking/models"
	"strconv"
)

const maxCommandBody = 1 << 20

type commandResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// trackCommand answers a slash command delivered as a form-encoded POST.
func (s *Server) trackCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	if s.signingSecret != "" {
		if err := verify(r.Header, body, s.signingSecret); err != nil {
			s.logger.Warn("Rejected unsigned command request", zap.Error(err))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "malformed command", http.StatusBadRequest)
		return
	}

	s.logger.Info("Status requested",
		zap.String("user_id", cmd.UserID),
		zap.String("user_name", cmd.UserName),
		zap.String("response_url", cmd.ResponseURL),
	)

	writeJSON(w, http.StatusOK, commandResponse{
		ResponseType: "in_channel",
		Text:         fmt.Sprintf("Hi %s, here is the latest:\n%s", caller(cmd), s.querier.QueryNow(r.Context())),
	})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		writeJSON(w, http.StatusOK, []models.Notification{})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notifications, err := s.notifications.RecentNotifications(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list notifications", zap.Error(err))
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func verify(header http.Header, body []byte, secret string) error {
	sv, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func caller(cmd slack.SlashCommand) string {
	if cmd.UserID != "" {
		return "<@" + cmd.UserID + ">"
	}
	if cmd.UserName != "" {
		return cmd.UserName
	}
	return "there"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
