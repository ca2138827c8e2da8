package models

// ListParams carries limit/offset paging for list calls. Zero values are omitted.
type ListParams struct {
	Limit  int
	Offset int
}

// ListPassesParams extends ListParams for the pass listing endpoints. Sponsor, when set, asks
// the service to filter server-side; callers still filter the results they receive.
type ListPassesParams struct {
	ListParams
	IncludeRevoked bool
	Sponsor        *int64
}

// Page is a single page of a paginated collection as returned by the partnerships service.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}
