package hash

import "golang.org/x/crypto/bcrypt"

// DefaultCost is deliberately above bcrypt.DefaultCost; offline brute force
// against a leaked hash table is the threat model here.
const DefaultCost = 12

func Password(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check compares a bcrypt hash against a plaintext password. bcrypt's
// comparison is constant-time with respect to correctness.
func Check(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
