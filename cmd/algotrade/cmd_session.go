package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Segevolp/AlgoTrade/internal/model"
)

func runLogin(cmd *cobra.Command, _ []string) error {
	pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ", password)
	if err != nil {
		return err
	}

	user, err := application.Session.Login(cmd.Context(), model.Credentials{Username: username, Password: pw})
	if err != nil {
		return errors.New(describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ", password)
	if err != nil {
		return err
	}
	confirm := confirmPassword
	if confirm == "" {
		confirm = pw
	}

	user, err := application.Session.Register(cmd.Context(), model.Registration{
		Username:        username,
		Email:           email,
		Password:        pw,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return errors.New(describe(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", user.Username)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if err := application.Session.Logout(cmd.Context()); err != nil {
		return err
	}
	if err := application.State.Delete(cmd.Context(), activePortfolioKey); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	user, ok := application.Session.User()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Username, user.Email)
	return nil
}
