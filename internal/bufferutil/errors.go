package bufferutil

import "errors"

// ErrLengthOverflow is returned when a length cannot be represented as a
// var int.
var ErrLengthOverflow = errors.New("length exceeds var int range")
