package response_models

type CreateCheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type CreatePortalResponse struct {
	URL string `json:"url"`
}
