package worker

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/usageref/pkg/models"
)

func (s *Service) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	product, err := models.NewProduct(0, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.products.Persist(r.Context(), product); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductResponse(product))
}

func (s *Service) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	product, err := s.products.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(product))
}

// handleCreateOrder links a stored member to a stored product.
func (s *Service) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID  int64 `json:"member_id"`
		ProductID int64 `json:"product_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.MemberID <= 0 || req.ProductID <= 0 {
		writeError(w, r, fmt.Errorf("%w: member_id and product_id are required", models.ErrInvalidArgument))
		return
	}

	member, err := s.members.Find(r.Context(), req.MemberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	product, err := s.products.Find(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := models.NewOrders(0, member, product)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.orders.Persist(r.Context(), order); err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().
		Int64("id", order.ID()).
		Int64("member_id", member.ID()).
		Int64("product_id", product.ID()).
		Msg("Order persisted")
	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (s *Service) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := s.orders.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}
