package model

type ChatReply struct {
	Reply string `json:"reply"`
}

type StatusUpdateBody struct {
	Status TaskStatus `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PictureResponse struct {
	Message        string `json:"message,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}
