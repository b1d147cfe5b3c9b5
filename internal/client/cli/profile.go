package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/agroprofile/internal/client/profile"
	"github.com/iudanet/agroprofile/internal/validation"
)

// clearMarker очищает необязательное поле при редактировании
const clearMarker = "-"

func (c *Cli) runProfile(ctx context.Context) error {
	sess, _, err := c.profile.Restore(ctx)
	if err != nil {
		return err
	}

	res, err := c.profile.FetchProfile(ctx, sess)
	if err != nil {
		return err
	}

	c.io.Println("=== Profile ===")
	c.io.Println()
	c.printUser(res.User)

	return nil
}

func (c *Cli) runUpdate(ctx context.Context) error {
	sess, cached, err := c.profile.Restore(ctx)
	if err != nil {
		return err
	}
	if cached == nil {
		cached = &profile.CachedUser{}
	}

	c.io.Println("=== Edit Profile ===")
	c.io.Println("Press Enter to keep the current value, '-' to clear crops or address.")
	c.io.Println()

	var in profile.UpdateInput

	name, err := c.io.ReadInput(fmt.Sprintf("Full name [%s]: ", cached.FullName))
	if err != nil {
		return fmt.Errorf("failed to read full name: %w", err)
	}
	if name != "" {
		in.FullName = &name
	}

	age, err := c.io.ReadInput(fmt.Sprintf("Age [%s]: ", formatAge(cached.Age)))
	if err != nil {
		return fmt.Errorf("failed to read age: %w", err)
	}
	if age != "" {
		in.Age = &age
	}

	address, err := c.io.ReadInput(fmt.Sprintf("Address [%s]: ", formatOptional(cached.Address)))
	if err != nil {
		return fmt.Errorf("failed to read address: %w", err)
	}
	switch address {
	case "":
	case clearMarker:
		empty := ""
		in.Address = &empty
	default:
		in.Address = &address
	}

	crops, err := c.io.ReadInput(fmt.Sprintf("Crops [%s]: ", formatCrops(cached.SelectedCrops)))
	if err != nil {
		return fmt.Errorf("failed to read crops: %w", err)
	}
	switch crops {
	case "":
	case clearMarker:
		in.Crops = []string{}
	default:
		in.Crops = validation.SplitCrops(crops)
	}

	res, err := c.profile.UpdateProfile(ctx, sess, in)
	if err != nil {
		return err
	}

	c.printResult(res)
	c.printUser(res.User)

	return nil
}

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	sess, cached, err := c.profile.Restore(ctx)
	if err != nil {
		return err
	}

	c.io.Println("=== Delete Account ===")
	c.io.Println()

	// -yes пропускает подтверждение
	confirmed := len(args) > 0 && args[0] == "-yes"
	if !confirmed {
		phone := ""
		if cached != nil {
			phone = cached.PhoneNumber
		}
		c.io.Printf("This permanently deletes the account %s and its crops.\n", phone)
		answer, err := c.io.ReadInput("Type 'yes' to continue: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		confirmed = answer == "yes"
	}
	if !confirmed {
		return ErrAborted
	}

	res, err := c.profile.DeleteAccount(ctx, sess)
	if err != nil {
		return err
	}

	c.io.Println("✓ " + capitalize(res.Message))
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
