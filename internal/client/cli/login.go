package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	phone, err := c.io.ReadInput("Phone number: ")
	if err != nil {
		return fmt.Errorf("failed to read phone number: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	res, err := c.profile.Login(ctx, phone, password)
	if err != nil {
		return err
	}

	c.printResult(res)
	c.printUser(res.User)
	c.io.Println()
	c.io.Println("Your session has been saved on this device.")

	return nil
}
