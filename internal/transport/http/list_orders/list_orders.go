package listorders

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

type service interface {
	ListOrders(ctx context.Context, query order.ListOrdersQuery) (*order.ListResult, error)
}

type queryOrdersRequest struct {
	Page         int    `schema:"page"         validate:"omitempty,min=1"`
	Limit        int    `schema:"limit"        validate:"omitempty,min=1"`
	CustomerName string `schema:"customerName"`
	OrderDate    string `schema:"orderDate"    validate:"omitempty,datetime=2006-01-02"`
}

func (q *queryOrdersRequest) ToModel() order.ListOrdersQuery {
	return order.ListOrdersQuery{
		Page:         q.Page,
		Limit:        q.Limit,
		CustomerName: q.CustomerName,
		OrderDate:    q.OrderDate,
	}
}

// ListOrders handles the list orders request.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryOrdersRequest{}
	if err := response.DecodeQuery(r, query); err != nil {
		response.Error(w, r, err)

		return
	}

	result, err := service.ListOrders(r.Context(), query.ToModel())
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Paginated(w, r, "Orders fetched successfully",
		map[string]any{"orders": result.Orders},
		response.NewPagination(result.TotalItems, result.Page, result.Limit),
	)
}
