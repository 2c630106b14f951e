package api

import (
	"net/http"
	"strconv"

	"github.com/shaiso/OrderBridge/internal/mq"
)

// EnsureQueue приводит очередь к ожидаемой конфигурации.
// POST /api/queues/{name}/ensure?force=true|false
func (h *Handler) EnsureQueue(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		BadRequest(w, "queue name is required")
		return
	}

	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		var err error
		force, err = strconv.ParseBool(v)
		if err != nil {
			BadRequest(w, "force must be true or false")
			return
		}
	}

	if err := h.topology.EnsureQueue(r.Context(), name, h.exchange, h.deadLetterExchange, force); err != nil {
		InternalError(w, h.logger, "Failed to ensure queue", err)
		return
	}

	spec := mq.NewQueueSpec(name, h.exchange, h.deadLetterExchange)
	Success(w, EnsureQueueResponse{
		Success:         true,
		Queue:           spec.Name,
		DeadLetterQueue: spec.DeadLetterQueue(),
		ReplyQueue:      spec.ReplyQueue(),
		Forced:          force,
	})
}
