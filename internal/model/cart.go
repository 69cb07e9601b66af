// Package model holds the canonical domain types shared across the
// storefront client: cart lines and snapshots, session identity, and the
// error taxonomy. All money is paise (int64 minor units).
package model

// LineSource records which cart authority produced a line.
type LineSource string

const (
	SourceLocal  LineSource = "local"
	SourceRemote LineSource = "remote"
)

// CartLine is a single product entry in a cart.
// Quantity is always > 0; a mutation that would drive it to zero or below
// must remove the line instead. ProductID is unique within a cart.
type CartLine struct {
	ProductID   string     `json:"product_id"`
	DisplayName string     `json:"display_name"`
	UnitPrice   int64      `json:"unit_price"` // paise
	ListPrice   int64      `json:"list_price"` // paise, pre-discount MRP
	Quantity    int        `json:"quantity"`
	ImageRef    string     `json:"image_ref,omitempty"`
	Source      LineSource `json:"source"`
}

// Amount returns the line contribution to the cart total.
func (l CartLine) Amount() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// CartSnapshot is an ordered view of the cart plus total bookkeeping.
//
// RemoteTotal is the last server-reported total; it is canonical while
// RemoteTotalFresh is true. Optimistic edits mark it stale, after which
// ComputedTotal is the displayed fallback until the server speaks again.
//
// Version increases on every write so a resync started before a newer
// optimistic edit can be detected as stale and discarded (last write wins).
type CartSnapshot struct {
	Lines            []CartLine `json:"lines"`
	RemoteTotal      int64      `json:"remote_total,omitempty"`
	RemoteTotalFresh bool       `json:"-"`
	Version          uint64     `json:"-"`
}

// ComputedTotal sums UnitPrice*Quantity over all lines.
func (s CartSnapshot) ComputedTotal() int64 {
	var total int64
	for _, l := range s.Lines {
		total += l.Amount()
	}
	return total
}

// DisplayTotal returns the total the UI should show: the authoritative
// remote total when fresh, locally recomputed otherwise.
func (s CartSnapshot) DisplayTotal() int64 {
	if s.RemoteTotalFresh {
		return s.RemoteTotal
	}
	return s.ComputedTotal()
}

// Line returns the line for productID and whether it exists.
func (s CartSnapshot) Line(productID string) (CartLine, bool) {
	for _, l := range s.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// ItemCount returns the summed quantity across lines.
func (s CartSnapshot) ItemCount() int {
	var n int
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Clone deep-copies the snapshot so optimistic edits never alias the
// engine's published state.
func (s CartSnapshot) Clone() CartSnapshot {
	out := s
	out.Lines = make([]CartLine, len(s.Lines))
	copy(out.Lines, s.Lines)
	return out
}

// Product is the catalog item handed to AddToCart. Presentation fields
// beyond these are the UI layer's concern.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"` // paise
	ListPrice   int64  `json:"list_price"` // paise
	ImageRef    string `json:"image_ref,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Purchasable bool   `json:"purchasable"`
}

// CartAuthority names which store is the source of truth for the cart.
type CartAuthority string

const (
	AuthorityLocal  CartAuthority = "local"
	AuthorityRemote CartAuthority = "remote"
)

// Identity is the session's view of who the user is. An empty Token means
// anonymous; the client performs no independent validation of token
// freshness. A rejected token surfaces as Unauthorized from the gateway.
type Identity struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// Authenticated reports whether a token is present.
func (id Identity) Authenticated() bool {
	return id.Token != ""
}

// Session pairs identity with the active cart authority.
// Invariant: Authority == AuthorityRemote iff Identity.Authenticated().
// Transitions happen only at login/logout; on login the local cart is not
// merged into the remote cart.
type Session struct {
	ID        string        `json:"id"`
	Identity  Identity      `json:"identity"`
	Authority CartAuthority `json:"authority"`
}
