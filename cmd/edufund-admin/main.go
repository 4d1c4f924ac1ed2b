package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	"github.com/noah-isme/edufund-api/internal/repository"
	"github.com/noah-isme/edufund-api/internal/service"
	"github.com/noah-isme/edufund-api/pkg/config"
	"github.com/noah-isme/edufund-api/pkg/database"
	"github.com/noah-isme/edufund-api/pkg/logger"
)

const usage = `usage: edufund-admin <command> [flags]

commands:
  create-admin    -email -name -password
  reset-password  -email -password
  verify-user     -email [-unverify]
`

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateAdminFields(ctx context.Context, user *models.User) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
}

type commands struct {
	users  userStore
	hasher passwordHasher
	out    io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(users, nil, nil, nil, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		BcryptCost:        cfg.JWT.BcryptCost,
	})
	cmd := &commands{users: users, hasher: auth, out: os.Stdout}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := cmd.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *commands) run(ctx context.Context, name string, args []string) error {
	switch name {
	case "create-admin":
		return c.createAdmin(ctx, args)
	case "reset-password":
		return c.resetPassword(ctx, args)
	case "verify-user":
		return c.verifyUser(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
}

func (c *commands) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	email := fs.String("email", "", "admin email")
	name := fs.String("name", "Administrator", "display name")
	password := fs.String("password", "", "initial password (min 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || len(*password) < 6 {
		return errors.New("email and a password of at least 6 characters are required")
	}

	hash, err := c.hasher.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(*name),
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsVerified:   true,
	}
	if err := c.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("a user with email %s already exists", user.Email)
		}
		return err
	}
	fmt.Fprintf(c.out, "created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func (c *commands) resetPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "new password (min 6 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(*password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	user, err := c.lookup(ctx, *email)
	if err != nil {
		return err
	}
	hash, err := c.hasher.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := c.users.UpdatePassword(ctx, user.ID, hash, time.Now().UTC()); err != nil {
		return err
	}
	if err := c.users.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	fmt.Fprintf(c.out, "password reset for %s\n", user.Email)
	return nil
}

func (c *commands) verifyUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("verify-user", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	unverify := fs.Bool("unverify", false, "clear the verified flag instead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := c.lookup(ctx, *email)
	if err != nil {
		return err
	}
	user.IsVerified = !*unverify
	if err := c.users.UpdateAdminFields(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s verified=%t\n", user.Email, user.IsVerified)
	return nil
}

func (c *commands) lookup(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	user, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", email, err)
	}
	return user, nil
}
