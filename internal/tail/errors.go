package tail

import "errors"

// ErrNotFound indicates the path does not exist on disk.
var ErrNotFound = errors.New("tail: file not found")

// ErrIO indicates a read failure against an existing file.
var ErrIO = errors.New("tail: read failed")
