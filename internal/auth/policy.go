package auth

import "commonspace/pkg/model"

// Every check switches over the full Role set. An unknown role is denied.

func IsAdmin(role model.Role) bool {
	switch role {
	case model.RoleAdmin, model.RoleSuperadmin:
		return true
	case model.RoleUser, model.RoleVenue:
		return false
	default:
		return false
	}
}

func IsSuperadmin(role model.Role) bool {
	switch role {
	case model.RoleSuperadmin:
		return true
	case model.RoleUser, model.RoleVenue, model.RoleAdmin:
		return false
	default:
		return false
	}
}

// CanManageVenues reports whether the role may create venues at all.
func CanManageVenues(role model.Role) bool {
	switch role {
	case model.RoleAdmin, model.RoleSuperadmin, model.RoleVenue:
		return true
	case model.RoleUser:
		return false
	default:
		return false
	}
}

// CanManageVenue reports whether p may edit venue and manage its bookings.
// Venue accounts only manage venues they created.
func CanManageVenue(p *Principal, venue *model.Venue) bool {
	if p == nil || venue == nil {
		return false
	}
	switch p.Role {
	case model.RoleAdmin, model.RoleSuperadmin:
		return true
	case model.RoleVenue:
		return venue.CreatorID != "" && venue.CreatorID == p.UserID
	case model.RoleUser:
		return false
	default:
		return false
	}
}

// CanViewBooking allows the booking's owner plus anyone managing its venue.
func CanViewBooking(p *Principal, booking *model.Booking, venue *model.Venue) bool {
	if p == nil || booking == nil {
		return false
	}
	if booking.UserID == p.UserID {
		return true
	}
	return CanManageVenue(p, venue)
}

// CanOverrideStatus gates reversals such as reactivating a cancelled booking.
func CanOverrideStatus(role model.Role) bool {
	return IsAdmin(role)
}

// CanChangeRole allows only superadmins, and never on another superadmin.
func CanChangeRole(actor *Principal, target *model.User) bool {
	if actor == nil || target == nil {
		return false
	}
	if !IsSuperadmin(actor.Role) {
		return false
	}
	switch target.Role {
	case model.RoleSuperadmin:
		return false
	case model.RoleUser, model.RoleVenue, model.RoleAdmin:
		return true
	default:
		return false
	}
}
