package handler

// LookupResponse is the HTTP response body for POST /api/managers. Every
// requested agent is present as a key; agents without a manager map to null.
type LookupResponse struct {
	Managers map[string]*string `json:"managers"`
}

// FromManagers wraps the resolved mapping in the response envelope.
func FromManagers(managers map[string]*string) LookupResponse {
	return LookupResponse{Managers: managers}
}
