package extract

import "errors"

var (
	ErrProviderUnavailable = errors.New("extraction provider unavailable")
	ErrInferenceTimeout    = errors.New("extraction inference timeout")
	ErrInvalidResponse     = errors.New("extraction provider returned invalid response")
)
