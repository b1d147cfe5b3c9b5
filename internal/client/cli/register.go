package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/agroprofile/internal/client/profile"
	"github.com/iudanet/agroprofile/internal/validation"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	var in profile.RegisterInput
	var err error

	if in.FullName, err = c.io.ReadInput("Full name: "); err != nil {
		return fmt.Errorf("failed to read full name: %w", err)
	}
	if in.PhoneNumber, err = c.io.ReadInput("Phone number: "); err != nil {
		return fmt.Errorf("failed to read phone number: %w", err)
	}

	if in.Password, err = c.io.ReadPassword("Password: "); err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if in.Password != confirm {
		return &profile.ValidationError{Err: errors.New("passwords do not match")}
	}

	if in.Age, err = c.io.ReadInput("Age (optional): "); err != nil {
		return fmt.Errorf("failed to read age: %w", err)
	}
	if in.Address, err = c.io.ReadInput("Address (optional): "); err != nil {
		return fmt.Errorf("failed to read address: %w", err)
	}
	crops, err := c.io.ReadInput("Crops, comma separated (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read crops: %w", err)
	}
	in.Crops = validation.SplitCrops(crops)

	c.io.Println()
	c.io.Println("Registering...")

	res, err := c.profile.Register(ctx, in)
	if err != nil {
		return err
	}

	c.printResult(res)
	c.printUser(res.User)

	return nil
}
