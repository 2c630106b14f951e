package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/OrderBridge/internal/mq"
)

// PlanProductionOrders строит заказы для готового продукта и
// при publish=true публикует их.
// POST /api/production-orders
func (h *Handler) PlanProductionOrders(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.ItemNo = strings.TrimSpace(req.ItemNo)
	if req.ItemNo == "" {
		BadRequest(w, "item_no is required")
		return
	}
	if req.Quantity <= 0 {
		BadRequest(w, "quantity must be positive")
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	orders, err := h.planner.Plan(r.Context(), req.ItemNo, req.Quantity, ts, req.User)
	if HandlePlanError(w, h.logger, err) {
		return
	}

	resp := PlanResponse{
		Success: true,
		ItemNo:  req.ItemNo,
		Count:   len(orders),
		Orders:  orders,
	}

	if req.Publish {
		published, err := h.orders.PublishOrders(r.Context(), mq.QueueProductionOrders, orders)
		if err != nil {
			InternalError(w, h.logger, "Failed to publish production orders", err)
			return
		}
		resp.Published = &published
	}

	Success(w, resp)
}
