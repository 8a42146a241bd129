package request_models

type CreateCheckoutRequest struct {
	PriceID    string `json:"price_id" binding:"required"`
	ClientID   string `json:"client_id" binding:"required"`
	UserEmail  string `json:"user_email" binding:"required,email"`
	SuccessURL string `json:"success_url" binding:"omitempty,url"`
	CancelURL  string `json:"cancel_url" binding:"omitempty,url"`
}

type CreatePortalRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	ReturnURL  string `json:"return_url" binding:"omitempty,url"`
}
