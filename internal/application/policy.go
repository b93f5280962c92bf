package application

// CanMutateReservation reports whether actor may edit or cancel r: its
// owner or an administrator.
func CanMutateReservation(actor Principal, r Reservation) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Authenticated() && actor.UserID == r.UserID
}

// CanMutateResource reports whether actor may create, edit or delete resources.
func CanMutateResource(actor Principal) bool {
	return actor.IsAdmin()
}

// CanManageSettings reports whether actor may change the scheduling rules.
func CanManageSettings(actor Principal) bool {
	return actor.IsAdmin()
}

// CanManageUsers reports whether actor may administer accounts.
func CanManageUsers(actor Principal) bool {
	return actor.IsAdmin()
}
