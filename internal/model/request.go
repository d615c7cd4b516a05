package model

// ChatRequest is both the body the widget posts to the backend chat endpoint
// and the optional body of the served send route.
type ChatRequest struct {
	Message string `json:"message"`
}

type DraftRequest struct {
	Text string `json:"text"`
}

type QuickQuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

type StatusUpdateRequest struct {
	Status    string `json:"status" binding:"required"`
	Confirmed bool   `json:"confirmed"`
}
