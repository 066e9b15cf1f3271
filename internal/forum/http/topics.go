package http

import (
	"net/http"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/httpx"
)

// TopicsHandler handles topic listing and subscriptions.
type TopicsHandler struct {
	SubscriptionService *service.SubscriptionService
}

// HandleList handles GET /api/topics.
func (h *TopicsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.SubscriptionService.ListAll(r.Context(), principalFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, topicResponses(list))
}

// HandleListSubscribed handles GET /api/topics/subscribed.
func (h *TopicsHandler) HandleListSubscribed(w http.ResponseWriter, r *http.Request) {
	list, err := h.SubscriptionService.ListSubscribed(r.Context(), principalFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, topicResponses(list))
}

// HandleSubscribe handles POST /api/topics/{id}/subscribe.
func (h *TopicsHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	summary, err := h.SubscriptionService.Subscribe(r.Context(), principalFrom(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, topicResponse(summary))
}

// HandleUnsubscribe handles DELETE /api/topics/{id}/unsubscribe.
func (h *TopicsHandler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	summary, err := h.SubscriptionService.Unsubscribe(r.Context(), principalFrom(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, topicResponse(summary))
}

func topicResponse(s domain.TopicSummary) forumsdk.TopicResponse {
	return forumsdk.TopicResponse{
		ID:          s.ID,
		Title:       s.Title,
		Content:     s.Content,
		CreatedAt:   s.CreatedAt,
		Subscribers: s.Subscribers,
		Subscribed:  s.Subscribed,
	}
}

func topicResponses(list []domain.TopicSummary) []forumsdk.TopicResponse {
	out := make([]forumsdk.TopicResponse, 0, len(list))
	for _, s := range list {
		out = append(out, topicResponse(s))
	}
	return out
}
