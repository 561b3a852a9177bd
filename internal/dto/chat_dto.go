package dto

type ChatRequest struct {
	Q string `query:"q" validate:"required"`
}

type ChatResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}
