package reports

import "errors"

// ErrUnsupportedFormat is returned when Generate is asked for a format no
// registered Generator implementation can produce.
var ErrUnsupportedFormat = errors.New("unsupported report format")
