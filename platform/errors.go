package platform

import "errors"

// ErrUnknownEnvironment indicates an unrecognized environment name.
var ErrUnknownEnvironment = errors.New("platform: unknown environment")
