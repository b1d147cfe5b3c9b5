package cli

import (
	"context"
)

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.profile.Logout(ctx); err != nil {
		return err
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session and cached profile have been deleted.")

	return nil
}
