// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

// Eligible reports whether a user may participate in matching at all.
// Travelers are always eligible. Service providers require both the
// account-level and the provider-profile-level verification flags.
// Gates both the clustering training population and per-request candidates.
func Eligible(u *User) bool {
	if u == nil {
		return false
	}

	switch u.Kind {
	case AccountTraveler:
		return true
	case AccountProvider:
		return u.Verified && u.Provider != nil && u.Provider.Verified
	default:
		return false
	}
}
