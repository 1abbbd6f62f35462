package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/client/config"
	"github.com/dmitrijs2005/securebank/internal/client/keys"
	"github.com/dmitrijs2005/securebank/internal/client/repositories/sessionstore"
	"github.com/dmitrijs2005/securebank/internal/client/services"
	"github.com/dmitrijs2005/securebank/internal/client/session"
	"github.com/dmitrijs2005/securebank/internal/cryptox"
	"github.com/dmitrijs2005/securebank/internal/logging"
)

// sessionInfo is what the status command reads from the token store.
type sessionInfo interface {
	Snapshot(ctx context.Context) session.Snapshot
	Expiration(token string) (time.Time, error)
	Remove(ctx context.Context)
}

type App struct {
	config      *config.Config
	authService services.AuthService
	bankService services.BankService
	tokens      sessionInfo
	nav         *Navigator
	log         logging.Logger

	reader  *bufio.Reader
	out     io.Writer
	closers []func() error
}

// NewApp wires storage, token store, gateway, key provider and services
// according to c. The caller must call Close.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	log = logging.OrDiscard(log)
	a := &App{config: c, log: log, reader: bufio.NewReader(in), out: out}

	storage, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	tokens := session.NewTokenStore(storage, log.With("component", "tokens"))
	a.nav = NewNavigator(out, log.With("component", "navigator"))

	gw, err := client.NewGateway(c.APIBaseURL, c.RequestTimeout, tokens, log.With("component", "gateway"),
		client.WithListener(a.nav))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	provider := keys.NewProvider(keys.GatewayFetcher(gw), log.With("component", "keys"))
	a.tokens = tokens
	a.authService = services.NewAuthService(gw, provider, cryptox.NewEncryptor(), tokens, log.With("component", "auth"),
		services.WithPasswordPolicy(services.PasswordPolicy(c.PasswordPolicy)),
		services.WithWarner(func(_ context.Context, msg string) { toastWarning(a.out, msg) }))
	a.bankService = services.NewBankService(gw, log.With("component", "bank"))
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (session.Storage, error) {
	if a.config.SessionStorage != config.StorageSQLite {
		return session.NewMemoryStorage(), nil
	}

	db, err := sessionstore.Open(ctx, a.config.SessionDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return sessionstore.NewSQLiteRepository(db), nil
}

// Run prints the banner and blocks in the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to SecureBank CLI (type 'help' for commands)")

	a.authService.PrefetchKey(ctx)

	if a.authService.Snapshot(ctx).Authenticated {
		a.nav.Navigate(ViewDashboard)
		toastInfo(a.out, "Existing session restored")
	}

	runREPL(ctx, a, a.nav.Location, a.reader)
}

// Close ends the session the way closing a browser tab does: the token is
// removed and session storage released.
func (a *App) Close(ctx context.Context) error {
	if a.tokens != nil {
		a.tokens.Remove(ctx)
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) view() View {
	return a.nav.View()
}
