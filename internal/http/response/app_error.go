package response

// AppError 携带业务码与本地化文案的错误包装，供 handler 层统一输出。
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装底层错误为 AppError
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
