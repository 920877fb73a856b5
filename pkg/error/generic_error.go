package error

// GenericError is implemented by errors that carry their own HTTP mapping.
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}
