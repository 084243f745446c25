package chessdto

// ErrorBody is the JSON body of a failed spectator request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorBody) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "spectator error"
}
