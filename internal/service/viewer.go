package service

// Viewer is the identity a read or write is performed for. The zero value is
// an anonymous viewer.
type Viewer struct {
	ID      uint
	IsStaff bool
}

// Anonymous returns the viewer of an unauthenticated request.
func Anonymous() Viewer {
	return Viewer{}
}

// IsAnonymous reports whether no user is attached.
func (v Viewer) IsAnonymous() bool {
	return v.ID == 0
}

// CanModify reports whether the viewer may change content owned by ownerID.
func (v Viewer) CanModify(ownerID uint) bool {
	return !v.IsAnonymous() && (v.ID == ownerID || v.IsStaff)
}
