package models

// QueryKey identifies the pass query a fetch was issued for.
type QueryKey struct {
	SponsorID   *int64
	ShowRevoked bool
	Page        int
}

// HasSponsor reports whether a sponsor is selected.
func (k QueryKey) HasSponsor() bool {
	return k.SponsorID != nil
}

// Equal compares keys by value, including the selected sponsor id.
func (k QueryKey) Equal(other QueryKey) bool {
	if k.ShowRevoked != other.ShowRevoked || k.Page != other.Page {
		return false
	}
	if k.SponsorID == nil || other.SponsorID == nil {
		return k.SponsorID == nil && other.SponsorID == nil
	}
	return *k.SponsorID == *other.SponsorID
}

// WithSponsor returns a copy selecting id (nil clears the selection) on page 1.
func (k QueryKey) WithSponsor(id *int64) QueryKey {
	if id != nil {
		v := *id
		id = &v
	}
	return QueryKey{SponsorID: id, ShowRevoked: k.ShowRevoked, Page: 1}
}

// WithShowRevoked returns a copy with the revoked visibility changed, on page 1.
func (k QueryKey) WithShowRevoked(show bool) QueryKey {
	return QueryKey{SponsorID: k.SponsorID, ShowRevoked: show, Page: 1}
}

// WithPage returns a copy pointing at page.
func (k QueryKey) WithPage(page int) QueryKey {
	k.Page = page
	return k
}
