package models

import "errors"

// ErrDuplicate is returned by stores when a record collides with an
// existing id or unique field (email, legal id).
var ErrDuplicate = errors.New("duplicate record")
