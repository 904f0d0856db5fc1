package folder

import "errors"

var (
	ErrUnknownFile  = errors.New("file not found")
	ErrNestedFolder = errors.New("folders cannot be moved into folders")
	ErrNotAFolder   = errors.New("target is not a folder")
)
