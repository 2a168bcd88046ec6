package engine

import "errors"

// ErrPostNotFound is returned when a reaction targets a post that does not
// exist or has been soft-deleted. Blinded posts still accept reactions;
// they are only excluded from ranking output.
var ErrPostNotFound = errors.New("post not found")
