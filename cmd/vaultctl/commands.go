package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"smart-vault-backend/internal/models"
	"smart-vault-backend/internal/services"
)

const defaultTokenAge = time.Minute

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key and print its identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("key")
			pub, priv, err := ed25519.GenerateKey(nil)
			if err != nil {
				return err
			}
			if err := writeKey(path, priv); err != nil {
				return err
			}
			id, err := models.IdentityFromPublicKey(pub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "identity: %s\nkey file: %s\n", id, path)
			return nil
		},
	}
}

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address [identity]",
		Short: "Print derived ledger addresses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Account", "Address")
			table.Append("house pool", models.HouseAddress().String())
			table.Append("pause config", models.PauseConfigAddress().String())

			if len(args) == 1 {
				id, err := models.ParseIdentity(args[0])
				if err != nil {
					return err
				}
				table.Append("vault", models.VaultAddress(id).String())
				table.Append("wallet", models.WalletAddress(id).String())
			}
			return table.Render()
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a single-use call token for one request",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := bodyFlag(cmd)
			if err != nil {
				return err
			}
			method, _ := cmd.Flags().GetString("method")
			path, _ := cmd.Flags().GetString("path")
			if body == nil && strings.ToUpper(method) != http.MethodGet {
				body = []byte{}
			}
			token, err := issueToken(cmd, method, path, body)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("method", http.MethodPost, "HTTP method the token is valid for")
	cmd.Flags().String("path", "", "request path the token is valid for, e.g. /api/vault/deposit")
	cmd.Flags().String("body", "", "request body the token signs")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func callCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call METHOD PATH",
		Short: "Send a signed request to the ledger API",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := bodyFlag(cmd)
			if err != nil {
				return err
			}
			method := strings.ToUpper(args[0])
			if body == nil && method != http.MethodGet {
				body = []byte{}
			}
			status, resp, err := send(cmd, method, args[1], body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", status, resp)
			return nil
		},
	}
	cmd.Flags().String("body", "", "JSON request body")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the pause state",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimRight(server, "/")+"/status/pause", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return errors.Wrap(err, "request pause status")
			}
			defer resp.Body.Close()

			var out struct {
				Status models.PauseStatus `json:"status"`
				Error  string             `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return errors.Wrap(err, "decode pause status")
			}
			if resp.StatusCode != http.StatusOK {
				return errors.Errorf("%d: %s", resp.StatusCode, out.Error)
			}

			s := out.Status
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("State", "Emergency", "Maintenance", "Remaining", "Resume", "Message")
			table.Append(string(s.State), fmt.Sprint(s.EmergencyPause), fmt.Sprint(s.MaintenancePause),
				(time.Duration(s.RemainingSeconds) * time.Second).String(), s.ResumeTime, s.Message)
			return table.Render()
		},
	}
}

func vaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vault [owner]",
		Short: "Show a vault; defaults to the key's own",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/vault"
			if len(args) == 1 {
				path = "/api/vaults/" + args[0]
			}
			var out struct {
				Vault models.VaultView `json:"vault"`
			}
			if err := getJSON(cmd, path, &out); err != nil {
				return err
			}

			v := out.Vault
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Owner", "Balance", "Available", "Locked", "Active games", "Accum wager")
			table.Append(v.Vault.Owner.String(), models.FormatAmount(v.Balance), models.FormatAmount(v.Available),
				models.FormatAmount(v.Vault.LockedAmount), fmt.Sprint(v.Vault.ActiveGames), models.FormatAmount(v.Vault.AccumWager))
			return table.Render()
		},
	}
}

func houseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "house",
		Short: "Show the house pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				House models.HouseView `json:"house"`
			}
			if err := getJSON(cmd, "/api/house", &out); err != nil {
				return err
			}

			h := out.House
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Balance", "Total volume", "Primary", "Secondary")
			table.Append(models.FormatAmount(h.Balance), models.FormatAmount(h.House.TotalVolume),
				h.House.PrimaryAuthority.String(), h.House.SecondaryAuthority.String())
			return table.Render()
		},
	}
}

func bodyFlag(cmd *cobra.Command) ([]byte, error) {
	raw, _ := cmd.Flags().GetString("body")
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		return data, errors.Wrap(err, "read body file")
	}
	return []byte(raw), nil
}

func issueToken(cmd *cobra.Command, method, path string, body []byte) (string, error) {
	keyPath, _ := cmd.Flags().GetString("key")
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	key, _, err := readKey(keyPath)
	if err != nil {
		return "", err
	}
	return services.NewJWTService(maxAge).IssueToken(key, method, path, body)
}

func send(cmd *cobra.Command, method, path string, body []byte) (int, []byte, error) {
	server, _ := cmd.Flags().GetString("server")
	token, err := issueToken(cmd, method, path, body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(server, "/")+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, errors.Wrap(err, "read response")
}

func getJSON(cmd *cobra.Command, path string, out any) error {
	status, data, err := send(cmd, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return errors.Errorf("%d: %s", status, bytes.TrimSpace(data))
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}
