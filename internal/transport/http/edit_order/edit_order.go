package editorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	createorder "github.com/corray333/backend-labs/shop/internal/transport/http/create_order"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

type service interface {
	EditOrder(ctx context.Context, id int64, items []orderitem.ItemInput) (*order.Order, error)
}

// editOrderRequest replaces every line item of the order.
type editOrderRequest struct {
	OrderItems []createorder.ItemRequest `json:"orderItems" validate:"required,min=1,dive"`
}

// EditOrder handles the edit order request.
func EditOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := response.ParseID(r, "id")
	if err != nil {
		response.Error(w, r, err)

		return
	}

	req := editOrderRequest{}
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, err)

		return
	}

	edited, err := service.EditOrder(r.Context(), id, createorder.ItemsToModel(req.OrderItems))
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Success(w, r, "Order updated successfully", map[string]any{"order": edited})
}
