package matches

import "errors"

var (
	errMissingParty = errors.New("both discipler and disciple ids are required")
	errSelfLink     = errors.New("a user cannot disciple themselves")
)
