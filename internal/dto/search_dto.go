package dto

import "memex-be/pkg/search"

type SearchRequest struct {
	Q string `query:"q"`
	N int    `query:"n"`
	T string `query:"t" validate:"omitempty,oneof=notes music ledger image"`
}

type RegenerateRequest struct {
	T string `query:"t" validate:"omitempty,oneof=notes music ledger image"`
}

type RegenerateResponse struct {
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	Regenerated []search.SearchType `json:"regenerated"`
}

type HealthResponse struct {
	Status   string              `json:"status"`
	Backends []search.SearchType `json:"backends"`
}
