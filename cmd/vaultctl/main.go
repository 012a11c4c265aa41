package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "vaultctl",
	Short:        "Operator tools for the smart vault ledger",
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "ledger API base URL")
	rootCmd.PersistentFlags().String("key", "vault.key", "path to the signing key file")
	rootCmd.PersistentFlags().Duration("max-age", defaultTokenAge, "token lifetime")

	rootCmd.AddCommand(keygenCmd(), addressCmd(), tokenCmd(), callCmd(), statusCmd(), vaultCmd(), houseCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
