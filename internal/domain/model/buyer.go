package model

// Buyer is the resolved identity of the person paying.
type Buyer struct {
	UserID  string
	Email   string
	Name    string
	Contact string
}

// Identified reports whether buyer has at least an id or an email.
func (b Buyer) Identified() bool {
	return b.UserID != "" || b.Email != ""
}

// BuyerHints carries raw identity input from the client: the stored session
// user object (possibly nested) and an optional bearer token.
type BuyerHints struct {
	Fields map[string]any
	Token  string
}

// Prefill holds optional widget prefill values. Missing values are empty strings.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// PrefillFrom builds widget prefill from resolved buyer.
func PrefillFrom(b Buyer) Prefill {
	return Prefill{Name: b.Name, Email: b.Email, Contact: b.Contact}
}
