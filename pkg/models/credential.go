package models

// Credential is a resolved secret as returned by the external credential store.
// The core never decrypts or writes credentials; it only resolves them by id
// when a step references one.
type Credential struct {
	ID   string            `json:"id"`
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

// Get returns a named field from the credential data, or "".
func (c *Credential) Get(key string) string {
	if c == nil {
		return ""
	}

	return c.Data[key]
}
