// Package ctl implements trustctl, the operator command line for a
// trustkeeper database. It works on the trust store directly and needs no
// running server.
package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/netx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/trustkeeper/internal/server/truststore"
)

const usage = `usage: trustctl [flags] <command> [args]

commands:
  migrate                    apply database migrations
  create-admin <email>       create an admin account (password is prompted)
  create-superuser <email>   create a superuser account (password is prompted)
  trust-ip <email> <ip>      add ip to the trusted IPs of an account
  show-user <email>          print an account and its trust records
  delete-user <email>        delete an account and everything it owns
`

var errUsage = errors.New("invalid usage")

// App dispatches trustctl commands.
type App struct {
	store   truststore.Store
	migrate func(ctx context.Context) error
	hasher  passwords.Hasher
	out     io.Writer
}

func NewApp(store truststore.Store, migrate func(ctx context.Context) error, hasher passwords.Hasher, out io.Writer) *App {
	return &App{store: store, migrate: migrate, hasher: hasher, out: out}
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch {
	case cmd == "migrate" && len(rest) == 0:
		return a.runMigrate(ctx)
	case cmd == "create-admin" && len(rest) == 1:
		return a.createPrivileged(ctx, rest[0], false)
	case cmd == "create-superuser" && len(rest) == 1:
		return a.createPrivileged(ctx, rest[0], true)
	case cmd == "trust-ip" && len(rest) == 2:
		return a.trustIP(ctx, rest[0], rest[1])
	case cmd == "show-user" && len(rest) == 1:
		return a.showUser(ctx, rest[0])
	case cmd == "delete-user" && len(rest) == 1:
		return a.deleteUser(ctx, rest[0])
	case cmd == "help":
		fmt.Fprint(a.out, usage)
		return nil
	}

	fmt.Fprint(a.out, usage)
	return fmt.Errorf("%w: %s", errUsage, strings.Join(args, " "))
}

func (a *App) runMigrate(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

// createPrivileged creates an account whose email counts as verified. Its
// first domain and IP are the local defaults.
func (a *App) createPrivileged(ctx context.Context, email string, superuser bool) error {
	email = netx.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrInvalidArgument)
	}

	password, err := confirmPassword(a.out)
	if err != nil {
		return err
	}
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}

	user, err := a.store.CreateUser(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
		IsSuperuser:  superuser,
	}, common.DefaultDomain, common.DefaultIP)
	if err != nil {
		return err
	}
	if err := a.store.AddVerifiedEmail(ctx, user.ID, user.Email); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "created %s (id %s, superuser=%t)\n", user.Email, user.ID, user.IsSuperuser)
	return nil
}

func (a *App) trustIP(ctx context.Context, email, ip string) error {
	normalized, ok := netx.NormalizeIP(ip)
	if !ok {
		return fmt.Errorf("%w: invalid ip %q", common.ErrInvalidArgument, ip)
	}
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	added, err := a.store.AddIP(ctx, user.ID, normalized)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(a.out, "trusted %s for %s\n", normalized, user.Email)
	} else {
		fmt.Fprintf(a.out, "%s was already trusted for %s\n", normalized, user.Email)
	}
	return nil
}

func (a *App) showUser(ctx context.Context, email string) error {
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	facts, err := a.store.LoadFacts(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:        %s\n", user.ID)
	fmt.Fprintf(a.out, "email:     %s\n", user.Email)
	fmt.Fprintf(a.out, "admin:     %t\n", user.IsAdmin)
	fmt.Fprintf(a.out, "superuser: %t\n", user.IsSuperuser)
	fmt.Fprintf(a.out, "verified:  %t\n", facts.Verified())
	fmt.Fprintf(a.out, "domains:   %s\n", strings.Join(facts.Domains, ", "))
	fmt.Fprintf(a.out, "ips:       %s\n", strings.Join(facts.IPs, ", "))
	return nil
}

func (a *App) deleteUser(ctx context.Context, email string) error {
	user, err := a.store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := a.store.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", user.Email)
	return nil
}
