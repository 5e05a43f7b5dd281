package model

// APIResponse is the uniform envelope for every JSON endpoint. Protected
// endpoints return it with Success=false and Message="Unauthorized" before
// any business logic runs; login returns it with an optional redirect.
type APIResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// ListMeta carries pagination information for list endpoints.
type ListMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse wraps list results with pagination metadata.
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    ListMeta    `json:"meta"`
}
