package deleteorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

type service interface {
	DeleteOrder(ctx context.Context, id int64) (bool, error)
}

// DeleteOrder handles the delete order request.
func DeleteOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := response.ParseID(r, "id")
	if err != nil {
		response.Error(w, r, err)

		return
	}

	deleted, err := service.DeleteOrder(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Success(w, r, "Order deleted successfully", map[string]any{"deleted": deleted})
}
