package order

import "time"

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Ids []int64 `json:"ids,omitempty"`
	// CustomerName matches customers whose name contains it, ignoring case.
	CustomerName string     `json:"customerName,omitempty"`
	CreatedFrom  *time.Time `json:"createdFrom,omitempty"`
	CreatedTo    *time.Time `json:"createdTo,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}

// ListOrdersQuery is a page request for the order listing.
type ListOrdersQuery struct {
	Page         int
	Limit        int
	CustomerName string
	// OrderDate is a calendar date in YYYY-MM-DD form.
	OrderDate string
}

// ListResult is a page of orders with the total number of matching orders.
type ListResult struct {
	Orders     []Order
	TotalItems int
	Page       int
	Limit      int
}
