package product

// QueryProductsModel represents filter parameters for querying products.
type QueryProductsModel struct {
	Ids    []int64 `json:"ids,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// ListProductsQuery is a page request for the product listing.
type ListProductsQuery struct {
	Page  int
	Limit int
}

// ListResult is a page of products with the total number of products.
type ListResult struct {
	Products   []Product
	TotalItems int
	Page       int
	Limit      int
}
