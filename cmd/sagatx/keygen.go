package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/wallet"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		words      int
		restore    bool
		passphrase string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create a wallet and write an encrypted keystore",
		Long: `keygen generates a BIP39 mnemonic, derives the signing key from it and
writes the seed to <home>/keystore.json encrypted with a password.

The password is read from SAGATX_PASSWORD when set, otherwise prompted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.keystorePath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("keystore %s already exists (use --force to overwrite)", path)
			}

			var mnemonic string
			if restore {
				prompt := promptui.Prompt{
					Label: "Mnemonic",
					Validate: func(s string) error {
						if !wallet.ValidateMnemonic(strings.TrimSpace(s)) {
							return wallet.ErrInvalidMnemonic
						}
						return nil
					},
				}
				in, err := prompt.Run()
				if err != nil {
					return handlePromptError(err, "mnemonic")
				}
				mnemonic = strings.TrimSpace(in)
			} else {
				bits, err := entropyBits(words)
				if err != nil {
					return err
				}
				mnemonic, err = wallet.GenerateMnemonic(bits)
				if err != nil {
					return err
				}
			}

			kp, err := wallet.KeypairFromMnemonic(mnemonic, passphrase)
			if err != nil {
				return err
			}

			password, err := readPassword("Keystore password", true)
			if err != nil {
				return err
			}
			if err := wallet.SaveKeystore(path, kp, password); err != nil {
				return err
			}
			a.logger.Info("keystore written",
				zap.String("path", path),
				zap.String("public_key", kp.PublicKey().String()))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", color.GreenString("Public key:"), kp.PublicKey())
			fmt.Fprintf(out, "%s %s\n", color.GreenString("Keystore:  "), path)
			if !restore {
				fmt.Fprintln(out)
				fmt.Fprintln(out, color.YellowString("Write down this mnemonic. It is the only way to restore the wallet:"))
				fmt.Fprintln(out, mnemonic)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&words, "words", 12, "Mnemonic length: 12 or 24 words")
	cmd.Flags().BoolVar(&restore, "recover", false, "Restore from an existing mnemonic instead of generating one")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Optional BIP39 passphrase")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing keystore")
	return cmd
}

func entropyBits(words int) (int, error) {
	switch words {
	case 12:
		return wallet.Mnemonic12Words, nil
	case 24:
		return wallet.Mnemonic24Words, nil
	default:
		return 0, errors.New("--words must be 12 or 24")
	}
}
