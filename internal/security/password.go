package security

import "golang.org/x/crypto/bcrypt"

// bcrypt cost 12 keeps a verify around 250ms, slow enough for stored
// credentials without stalling the login route.
const hashCost = 12

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), hashCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
