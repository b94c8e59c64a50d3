package auth_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/auth/storetest"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("credentials", func(t *testing.T) {
		storetest.Credentials(t, auth.NewMemoryStore())
	})
	t.Run("sessions", func(t *testing.T) {
		storetest.Sessions(t, auth.NewMemoryStore(), func(*testing.T) uuid.UUID { return uuid.New() })
	})
	t.Run("ephemeral tokens", func(t *testing.T) {
		storetest.Ephemeral(t, auth.NewMemoryStore())
	})
}
