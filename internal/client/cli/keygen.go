package cli

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/bowwow/internal/cryptox"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func (a *App) newKeygenCmd() *cobra.Command {
	var (
		fromPassphrase bool
		salt           string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a base64 location encryption key",
		Long: "Print a random key suitable for LOCATION_ENCRYPTION_KEY. With --passphrase\n" +
			"the key is derived from a passphrase read from the terminal, or from the\n" +
			"first line of stdin when it is not a terminal.",
		Args: cobra.NoArgs,
		// keygen needs no server settings
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var key []byte
			if fromPassphrase {
				if salt == "" {
					return errors.New("--salt is required with --passphrase")
				}
				pass, err := a.readPassphrase()
				if err != nil {
					return err
				}
				key = cryptox.DeriveKey(pass, []byte(salt))
			} else {
				var err error
				if key, err = cryptox.GenerateKey(); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintln(a.out, base64.StdEncoding.EncodeToString(key))
			return err
		},
	}
	cmd.Flags().BoolVar(&fromPassphrase, "passphrase", false, "derive the key from a passphrase")
	cmd.Flags().StringVar(&salt, "salt", "", "salt for passphrase derivation")
	return cmd
}

func (a *App) readPassphrase() ([]byte, error) {
	if f, ok := a.in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Passphrase: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		if len(pw) == 0 {
			return nil, errors.New("empty passphrase")
		}
		return pw, nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		return nil, errors.New("empty passphrase")
	}
	return []byte(line), nil
}
