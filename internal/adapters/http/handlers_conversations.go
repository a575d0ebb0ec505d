package httpadapter

import (
	"net/http"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type conversationList struct {
	Conversations []domain.Conversation `json:"conversations"`
}

func (rt *Router) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := rt.svc.Conversations.ListConversations(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, conversationList{Conversations: convs})
}

func (rt *Router) getConversation(w http.ResponseWriter, r *http.Request) {
	thread, err := rt.svc.Conversations.GetConversation(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "get conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (rt *Router) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := rt.svc.Conversations.DeleteConversation(r.Context(), userID(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, "delete conversation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
