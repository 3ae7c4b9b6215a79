package domain

import "errors"

var (
	ErrTransport            = errors.New("transport failure")
	ErrDecode               = errors.New("malformed response body")
	ErrAllEndpointsFailed   = errors.New("all endpoint candidates failed")
	ErrAuthenticationFailed = errors.New("no usable session")
	ErrNoAccounts           = errors.New("no account credentials found")
)
