package account

import (
	"errors"
	"fmt"
)

const apiKeyDisplaySize = 16

var (
	// ErrCredentialsAreEmpty is returned when no API key has been supplied
	ErrCredentialsAreEmpty = errors.New("credentials are empty")
	// ErrSecretIsEmpty is returned when a signed request has no secret
	ErrSecretIsEmpty = errors.New("credentials secret is empty")
)

// Credentials define parameters that allow for an authenticated request.
// They are copied by value into a client and never modified afterwards.
type Credentials struct {
	Key    string
	Secret string
}

// String prints out basic credential info (obfuscated) to track key instances
// associated with exchanges. The secret is never printed.
func (c Credentials) String() string {
	obfuscated := c.Key
	if len(obfuscated) > apiKeyDisplaySize {
		obfuscated = obfuscated[:apiKeyDisplaySize]
	}
	return fmt.Sprintf("Key:[%s...]", obfuscated)
}

// GoString keeps %#v from leaking the secret
func (c Credentials) GoString() string {
	return "account.Credentials{" + c.String() + "}"
}

// IsEmpty return true if the underlying credentials type has not been filled
// with at least one item.
func (c *Credentials) IsEmpty() bool {
	return c == nil || c.Key == "" && c.Secret == ""
}

// CheckKey ensures an API key is present for key-only endpoints
func (c *Credentials) CheckKey() error {
	if c == nil || c.Key == "" {
		return ErrCredentialsAreEmpty
	}
	return nil
}

// CheckSigning ensures both key and secret are present for signed endpoints
func (c *Credentials) CheckSigning() error {
	if err := c.CheckKey(); err != nil {
		return err
	}
	if c.Secret == "" {
		return ErrSecretIsEmpty
	}
	return nil
}
