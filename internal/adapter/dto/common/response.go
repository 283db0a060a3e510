package common

// ListResponse wraps list endpoints so clients get the item count
// without measuring the array themselves.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// NewListResponse builds a ListResponse for a slice of n items.
func NewListResponse(data interface{}, n int) ListResponse {
	return ListResponse{Data: data, Count: n}
}
