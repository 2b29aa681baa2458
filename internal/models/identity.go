package models

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID            string
	ExternalAccountID string
}

// AccountID returns the external account id or nil when the session carries none.
func (i *Identity) AccountID() *string {
	if i == nil || i.ExternalAccountID == "" {
		return nil
	}
	id := i.ExternalAccountID
	return &id
}
