package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wesm/chatvault/internal/query"
	"github.com/wesm/chatvault/internal/scheduler"
	"github.com/wesm/chatvault/internal/search"
)

// ConversationSummary represents a conversation in list responses.
type ConversationSummary struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	LastMessage     string   `json:"last_message,omitempty"`
	LastMessageDate int64    `json:"last_message_date"`
	Participants    []string `json:"participants,omitempty"`
}

// MessageView represents a message in responses, sender resolved.
type MessageView struct {
	ID             int64  `json:"id"`
	ConversationID string `json:"conversation_id"`
	Date           int64  `json:"date"`
	FromMe         bool   `json:"from_me"`
	Sender         string `json:"sender,omitempty"`
	SenderName     string `json:"sender_name,omitempty"`
	Text           string `json:"text"`
	AttachmentPath string `json:"attachment_path,omitempty"`
	AttachmentMIME string `json:"attachment_mime,omitempty"`
}

// ContactView represents a directory contact in responses.
type ContactView struct {
	ID           int64    `json:"id"`
	DisplayName  string   `json:"display_name"`
	Organization string   `json:"organization,omitempty"`
	Phones       []string `json:"phones,omitempty"`
	Emails       []string `json:"emails,omitempty"`
}

// SearchResult represents search results.
type SearchResult struct {
	Query    string        `json:"query"`
	Count    int           `json:"count"`
	Messages []MessageView `json:"messages"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

func messageView(m query.Message) MessageView {
	v := MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Date:           m.Date,
		FromMe:         m.FromMe,
		Sender:         m.Sender,
		Text:           m.Text,
		AttachmentPath: m.AttachmentPath,
		AttachmentMIME: m.AttachmentMIME,
	}
	if m.Contact != nil {
		v.SenderName = m.Contact.DisplayName()
	}
	return v
}

// handleConversations returns the conversation list with synthesized titles.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.archive.Conversations(r.Context())
	if err != nil {
		s.logger.Error("failed to list conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list conversations")
		return
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summaries = append(summaries, ConversationSummary{
			ID:              c.ID,
			Title:           c.Title,
			LastMessage:     c.LastMessage,
			LastMessageDate: c.LastMessageDate,
			Participants:    c.Participants,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleMessages returns the message page for one conversation.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	messages, err := s.archive.Messages(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list messages", "conversation", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list messages")
		return
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleSearch parses the q parameter into a search specification and runs
// it against the archive.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	spec := search.NewParser(s.archive.Index()).Parse(q)
	messages, err := s.archive.Search(r.Context(), spec)
	if err != nil {
		s.logger.Error("search failed", "query", q, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Search failed")
		return
	}

	result := SearchResult{
		Query:    q,
		Count:    len(messages),
		Messages: make([]MessageView, 0, len(messages)),
	}
	for _, m := range messages {
		result.Messages = append(result.Messages, messageView(m))
	}
	writeJSON(w, http.StatusOK, result)
}

// handleContacts returns the contact directory snapshot.
func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	contacts := s.archive.Contacts()

	views := make([]ContactView, 0, len(contacts))
	for _, c := range contacts {
		views = append(views, ContactView{
			ID:           c.ID,
			DisplayName:  c.DisplayName(),
			Organization: c.Organization,
			Phones:       c.Phones,
			Emails:       c.Emails,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// handleRefresh triggers a directory refresh outside the schedule.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Trigger(); err != nil {
		writeError(w, http.StatusConflict, "refresh_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

// SchedulerStatusResponse represents scheduler status.
type SchedulerStatusResponse struct {
	Running bool             `json:"running"`
	Job     scheduler.Status `json:"job"`
}

// handleSchedulerStatus returns the refresh scheduler status.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchedulerStatusResponse{
		Running: s.scheduler.IsRunning(),
		Job:     s.scheduler.Status(),
	})
}
