package models

// ChatRequest is the body of POST /chat. The field must be present; an empty
// string is accepted.
type ChatRequest struct {
	UserInput *string `json:"user_input" binding:"required"`
}

// ChatResponse echoes the input next to the model reply.
type ChatResponse struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}
