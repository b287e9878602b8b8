package patient

import (
	"context"
	"fmt"
	"math/rand"
)

// Patient codes look like "QK-7391": two uppercase letters, a dash and four
// digits. The code doubles as the portal login credential, so it has to be
// short enough to read out over the phone.
const maxCodeAttempts = 10

func randomCode() string {
	letters := [2]byte{
		byte('A' + rand.Intn(26)),
		byte('A' + rand.Intn(26)),
	}
	return fmt.Sprintf("%s-%04d", letters, 1000+rand.Intn(9000))
}

// generateCode produces a code not present in the store at check time. The
// unique index on patients.code is the real guard; this loop just keeps
// collisions rare enough that the insert almost never has to retry.
func (s *Service) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := randomCode()
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check patient code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique patient code after %d attempts", maxCodeAttempts)
}
