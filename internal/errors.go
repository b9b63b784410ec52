package internal

import "errors"

var ErrInvalidURL = errors.New("invalid URL format")
var ErrInvalidShortCode = errors.New("short code must be 3-20 characters of letters, digits, hyphen or underscore")
var ErrShortCodeExists = errors.New("short code already exists")
var ErrLinkNotFound = errors.New("link not found")
var ErrCodeSpaceExhausted = errors.New("unable to allocate a unique short code")
var ErrUnauthorized = errors.New("unauthorized")
