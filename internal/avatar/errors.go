package avatar

import "errors"

var (
	ErrDecode             = errors.New("source is not a decodable raster image")
	ErrNoCropDefined      = errors.New("no crop region defined")
	ErrSurfaceUnavailable = errors.New("cannot allocate drawing surface")
	ErrEncode             = errors.New("cannot encode output image")
	ErrSessionDone        = errors.New("session already rendered")
	ErrSessionClosed      = errors.New("session is not active")
	ErrInvalidCrop        = errors.New("invalid crop region")
	ErrInvalidTransform   = errors.New("invalid transform")
	ErrInvalidConfig      = errors.New("invalid pipeline config")
)

// IsInputError reports whether err was caused by the caller's image or
// parameters rather than by the rendering environment.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrInvalidCrop) ||
		errors.Is(err, ErrInvalidTransform)
}
