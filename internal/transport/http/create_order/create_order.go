package createorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, customerName string, items []orderitem.ItemInput) (*order.Order, error)
}

// ItemRequest represents a line item in an order request.
type ItemRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity"  validate:"gt=0,lte=2147483647"`
}

// ToModel converts ItemRequest to orderitem.ItemInput.
func (r ItemRequest) ToModel() orderitem.ItemInput {
	return orderitem.ItemInput{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
	}
}

// ItemsToModel converts request line items to service inputs.
func ItemsToModel(items []ItemRequest) []orderitem.ItemInput {
	result := make([]orderitem.ItemInput, len(items))
	for i, item := range items {
		result[i] = item.ToModel()
	}

	return result
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	CustomerName string        `json:"customerName" validate:"required"`
	OrderItems   []ItemRequest `json:"orderItems"   validate:"required,min=1,dive"`
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.CustomerName, ItemsToModel(req.OrderItems))
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Created(w, r, "Order created successfully", map[string]any{"order": created})
}
