package errors

import "fmt"

var (
	// ErrMissingText rejects inbound payloads without a usable text field.
	ErrMissingText = fmt.Errorf("missing required field: text")

	// ErrAnonymousSession signals an attempt to durably identify a session
	// that has no session id to retrieve it by later.
	ErrAnonymousSession = fmt.Errorf("anonymous session cannot be marked identified")

	// ErrEmptyAccountUUID signals an identification result without an account.
	ErrEmptyAccountUUID = fmt.Errorf("account uuid must not be empty")
)
