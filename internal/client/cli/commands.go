package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/securebank/internal/client/client"
	"github.com/dmitrijs2005/securebank/internal/client/models"
	"github.com/dmitrijs2005/securebank/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errLoginRequired = errors.New("please log in first")

// Register prompts for the profile and password and creates an account.
// The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	if a.view() == ViewDashboard {
		toastInfo(a.out, "Already logged in, log out first")
		return nil
	}

	req := models.RegisterRequest{}
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Enter username", &req.Username},
		{"Enter email", &req.Email},
		{"Enter first name", &req.FirstName},
		{"Enter last name", &req.LastName},
	} {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if req.Username == "" {
		toastError(a.out, "Username is required")
		return errors.New("username is required")
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if err := a.authService.Register(ctx, req); err != nil {
		toastError(a.out, a.authService.Snapshot(ctx).Error)
		return err
	}

	a.nav.Navigate(ViewDashboard)
	toastSuccess(a.out, "Registration successful!")
	return nil
}

// Login prompts for credentials and authenticates. On success the dashboard
// becomes the current view.
func (a *App) Login(ctx context.Context) error {
	if a.view() == ViewDashboard {
		toastInfo(a.out, "Already logged in")
		return nil
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, username, string(password)); err != nil {
		toastError(a.out, a.authService.Snapshot(ctx).Error)
		return err
	}

	a.nav.Navigate(ViewDashboard)
	toastSuccess(a.out, "Login successful!")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout(ctx)
	a.nav.Navigate(ViewLogin)
	toastInfo(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	u, err := a.authService.CurrentUser(ctx)
	if err != nil {
		toastError(a.out, client.UserMessage(err))
		return err
	}
	fmt.Fprintf(a.out, "User:     %s (#%d)\n", u.DisplayName(), u.ID)
	fmt.Fprintf(a.out, "Username: %s\n", u.Username)
	if u.Email != "" {
		fmt.Fprintf(a.out, "Email:    %s\n", u.Email)
	}
	fmt.Fprintf(a.out, "KYC:      %t\n", u.KYCVerified)
	if len(u.Roles) > 0 {
		fmt.Fprintf(a.out, "Roles:    %s\n", strings.Join(u.Roles, ", "))
	}
	return nil
}

// Status prints the session projection without touching the network.
func (a *App) Status(ctx context.Context) error {
	st := a.authService.Snapshot(ctx)
	fmt.Fprintf(a.out, "View:          %s\n", a.nav.Location())
	fmt.Fprintf(a.out, "Authenticated: %t\n", st.Authenticated)
	if st.User != nil {
		fmt.Fprintf(a.out, "User:          %s\n", st.User.DisplayName())
	}
	if snap := a.tokens.Snapshot(ctx); snap.Present {
		if exp, err := a.tokens.Expiration(snap.Token); err == nil {
			fmt.Fprintf(a.out, "Token expires: %s\n", exp.Local().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Fprintln(a.out, "Token expires: unknown")
		}
	}
	if st.Error != "" {
		fmt.Fprintf(a.out, "Last error:    %s\n", st.Error)
	}
	return nil
}

func (a *App) Accounts(ctx context.Context, args []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}

	customerID := a.config.CustomerID
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			toastError(a.out, err.Error())
			return err
		}
		customerID = id
	}
	if customerID <= 0 {
		if st := a.authService.Snapshot(ctx); st.User != nil {
			customerID = st.User.ID
		}
	}
	if customerID <= 0 {
		toastError(a.out, "Usage: accounts <customerID>")
		return errors.New("customer id required")
	}

	accounts, err := a.bankService.Accounts(ctx, customerID)
	if err != nil {
		toastError(a.out, client.UserMessage(err))
		return err
	}
	if len(accounts) == 0 {
		toastInfo(a.out, "No accounts")
		return nil
	}
	for _, acc := range accounts {
		fmt.Fprintln(a.out, acc.String())
	}
	return nil
}

func (a *App) Balance(ctx context.Context, args []string) error {
	id, err := a.accountArg(args, "balance")
	if err != nil {
		return err
	}
	b, err := a.bankService.Balance(ctx, id)
	if err != nil {
		toastError(a.out, client.UserMessage(err))
		return err
	}
	fmt.Fprintf(a.out, "Balance of #%d: %.2f\n", id, b)
	return nil
}

func (a *App) Transactions(ctx context.Context, args []string) error {
	id, err := a.accountArg(args, "transactions")
	if err != nil {
		return err
	}
	txs, err := a.bankService.Transactions(ctx, id)
	if err != nil {
		toastError(a.out, client.UserMessage(err))
		return err
	}
	if len(txs) == 0 {
		toastInfo(a.out, "No transactions")
		return nil
	}
	for _, tx := range txs {
		fmt.Fprintf(a.out, "#%d %s %.2f from #%d to #%d\n", tx.ID, tx.Status, tx.Amount, tx.Sender.ID, tx.Receiver.ID)
	}
	return nil
}

func (a *App) Transfer(ctx context.Context) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}

	sender, err := GetID(a.reader, "Sender account id", a.out)
	if err != nil {
		toastError(a.out, err.Error())
		return err
	}
	receiver, err := GetID(a.reader, "Receiver account id", a.out)
	if err != nil {
		toastError(a.out, err.Error())
		return err
	}
	amount, err := GetAmount(a.reader, "Amount", a.out)
	if err != nil {
		toastError(a.out, err.Error())
		return err
	}

	msg, err := a.bankService.Transfer(ctx, models.TransferRequest{
		SenderAccountID:   sender,
		ReceiverAccountID: receiver,
		Amount:            amount,
	})
	if err != nil {
		toastError(a.out, client.UserMessage(err))
		return err
	}
	if msg == "" {
		msg = "Transfer submitted"
	}
	toastSuccess(a.out, msg)
	return nil
}

func (a *App) accountArg(args []string, cmd string) (int64, error) {
	if err := a.requireDashboard(); err != nil {
		return 0, err
	}
	if len(args) == 0 {
		toastError(a.out, fmt.Sprintf("Usage: %s <accountID>", cmd))
		return 0, errors.New("account id required")
	}
	id, err := parseID(args[0])
	if err != nil {
		toastError(a.out, err.Error())
		return 0, err
	}
	return id, nil
}

// requireDashboard blocks protected commands on the login view. It does not
// check token validity: that is the gateway's job on the next request.
func (a *App) requireDashboard() error {
	if a.view() != ViewDashboard {
		toastWarning(a.out, "Please log in first")
		return errLoginRequired
	}
	return nil
}
