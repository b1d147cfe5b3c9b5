package cli

import (
	"context"
	"errors"

	"github.com/iudanet/agroprofile/internal/client/profile"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	sess, cached, err := c.profile.Restore(ctx)
	switch {
	case errors.Is(err, profile.ErrNoSession):
		c.io.Println("Session: Not logged in")
		c.io.Println("Run 'agroprofile login' or 'agroprofile register' to start.")
	case err != nil:
		return err
	default:
		c.io.Println("Session: Logged in")
		c.printUser(cached)
		c.io.Println()
		if sess.LocalOnly || (cached != nil && cached.LocalOnly) {
			c.io.Println("⚠️  Pending sync: local changes are not confirmed by the server yet")
		} else {
			c.io.Println("✓ Profile synchronized with server")
		}
	}

	c.io.Println()
	// Недоступный сервер для status не ошибка
	health, err := c.health.Health(ctx)
	if err != nil {
		c.io.Println("Server: unreachable")
		return nil
	}
	if health.Version != "" {
		c.io.Printf("Server: %s (version %s)\n", health.Status, health.Version)
	} else {
		c.io.Printf("Server: %s\n", health.Status)
	}

	return nil
}
