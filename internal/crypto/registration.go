package crypto

import (
	"crypto/rand"
	"math/big"

	"cipherchat/internal/domain"
)

// RandomRegistrationID picks a registration id uniformly from
// [MinRegistrationID, MaxRegistrationID] using crypto/rand.
func RandomRegistrationID() (domain.RegistrationID, error) {
	span := big.NewInt(int64(domain.MaxRegistrationID - domain.MinRegistrationID + 1))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return domain.MinRegistrationID + domain.RegistrationID(n.Uint64()), nil
}
