package contest

// EffectivePassword picks the record a login is checked against: the
// contest-scoped record when the participation carries one, the user's
// global record otherwise.
func EffectivePassword(u *User, p *Participation) string {
	if p != nil && p.Password != "" {
		return p.Password
	}
	return u.Password
}
