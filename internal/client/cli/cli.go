package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/iudanet/agroprofile/internal/client/iocli"
	"github.com/iudanet/agroprofile/internal/client/profile"
	pkgapi "github.com/iudanet/agroprofile/pkg/api"
)

// ErrUnknownCommand неизвестная команда
var ErrUnknownCommand = errors.New("unknown command")

// ErrAborted пользователь отказался от действия
var ErrAborted = errors.New("aborted by user")

// ProfileService операции профиля, которые вызывает CLI
type ProfileService interface {
	Register(ctx context.Context, in profile.RegisterInput) (*profile.Result, error)
	Login(ctx context.Context, phone, password string) (*profile.Result, error)
	FetchProfile(ctx context.Context, sess profile.Session) (*profile.Result, error)
	UpdateProfile(ctx context.Context, sess profile.Session, in profile.UpdateInput) (*profile.Result, error)
	DeleteAccount(ctx context.Context, sess profile.Session) (*profile.Result, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (profile.Session, *profile.CachedUser, error)
}

// HealthChecker проверяет доступность сервера
type HealthChecker interface {
	Health(ctx context.Context) (*pkgapi.HealthResponse, error)
}

type Cli struct {
	io      iocli.IO
	profile ProfileService
	health  HealthChecker
}

func New(console iocli.IO, profileService ProfileService, health HealthChecker) *Cli {
	return &Cli{
		io:      console,
		profile: profileService,
		health:  health,
	}
}

func (c *Cli) PrintUsage() {
	c.io.Println("AgroProfile Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  agroprofile [OPTIONS] COMMAND")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  -version             Show version information")
	c.io.Println("  -server URL          Server URL (env AGRO_SERVER_URL, default http://localhost:8080)")
	c.io.Println("  -db PATH             Path to local database (env AGRO_CLIENT_DB, default agroprofile-client.db)")
	c.io.Println("  -offline-login       Allow login from local data when the server is unreachable (testing only)")
	c.io.Println("                       Only for a profile registered offline on this device")
	c.io.Println("  -verbose             Print debug logs to stderr")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  register             Register a new farmer profile")
	c.io.Println("  login                Login with phone number and password")
	c.io.Println("  logout               Remove the local session")
	c.io.Println("  status               Show session, sync and server status")
	c.io.Println("  profile              Show your profile from the server")
	c.io.Println("  update               Edit your profile")
	c.io.Println("  delete               Delete your account")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  agroprofile register")
	c.io.Println("  agroprofile -server https://agro.example.com login")
	c.io.Println("  agroprofile update")
}

func (c *Cli) printUser(u *profile.CachedUser) {
	if u == nil {
		return
	}
	if u.ID != 0 {
		c.io.Printf("ID:        %d\n", u.ID)
	}
	c.io.Printf("Name:      %s\n", u.FullName)
	c.io.Printf("Phone:     %s\n", u.PhoneNumber)
	c.io.Printf("Age:       %s\n", formatAge(u.Age))
	c.io.Printf("Address:   %s\n", formatOptional(u.Address))
	c.io.Printf("Crops:     %s\n", formatCrops(u.SelectedCrops))
}

func (c *Cli) printResult(res *profile.Result) {
	c.io.Println()
	if res.PendingSync() {
		c.io.Println("⚠️  " + res.Message)
	} else if res.Message != "" {
		c.io.Println("✓ " + res.Message)
	}
}

func formatAge(age *int) string {
	if age == nil {
		return "-"
	}
	return strconv.Itoa(*age)
}

func formatOptional(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func formatCrops(crops []string) string {
	if len(crops) == 0 {
		return "-"
	}
	return strings.Join(crops, ", ")
}

// ErrorMessage возвращает текст ошибки команды для пользователя
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return err.Error()
	case errors.Is(err, ErrAborted):
		return "Aborted. Nothing was changed."
	case errors.Is(err, io.EOF):
		return "Input ended unexpectedly. Nothing was changed."
	}
	return profile.UserMessage(err)
}
