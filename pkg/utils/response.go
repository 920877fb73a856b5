package utils

// ResponseData is the envelope for all REST responses.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on error so the recovery middleware can map it onto
// an HTTP response.
func PanicIfNeeded(err error) {
	if err != nil {
		panic(err)
	}
}
