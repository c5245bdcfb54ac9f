package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/manifoldco/promptui"

	"github.com/solanasaga/saga-tx-go/wallet"
)

// passwordEnv supplies the keystore password non-interactively.
const passwordEnv = "SAGATX_PASSWORD"

var errCancelled = errors.New("cancelled")

func handlePromptError(err error, what string) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errCancelled
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func validateNonEmpty(s string) error {
	if s == "" {
		return errors.New("value must not be empty")
	}
	return nil
}

// readPassword returns $SAGATX_PASSWORD or prompts for it. With confirm set
// the password is asked twice.
func readPassword(label string, confirm bool) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	prompt := promptui.Prompt{Label: label, Mask: '*', Validate: validateNonEmpty}
	pw, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err, "password")
	}
	if !confirm {
		return pw, nil
	}

	again := promptui.Prompt{
		Label: "Repeat password",
		Mask:  '*',
		Validate: func(s string) error {
			if s != pw {
				return errors.New("passwords do not match")
			}
			return nil
		},
	}
	if _, err := again.Run(); err != nil {
		return "", handlePromptError(err, "password confirmation")
	}
	return pw, nil
}

// approver asks on the terminal before each signature, standing in for a
// wallet's approval dialog. A declined prompt is a user rejection.
func approver(memo string) wallet.Approver {
	return func(ctx context.Context, t *solana.Transaction) error {
		fmt.Printf("%s %s\n", color.CyanString("Sign transaction:"), memo)
		fmt.Printf("  blockhash  %s\n", t.Message.RecentBlockhash)
		if len(t.Message.AccountKeys) > 0 {
			fmt.Printf("  fee payer  %s\n", t.Message.AccountKeys[0])
		}

		prompt := promptui.Prompt{Label: "Approve", IsConfirm: true}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return wallet.ErrUserRejected
			}
			return err
		}
		return nil
	}
}
