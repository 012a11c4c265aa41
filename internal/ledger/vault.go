package ledger

import (
	"context"

	"smart-vault-backend/internal/models"
)

// InitializeVault creates the caller's vault at its derived address.
func (e *Engine) InitializeVault(ctx context.Context, call Call) error {
	addr := models.VaultAddress(call.Signer)
	accounts := []models.Address{addr, models.WalletAddress(call.Signer)}

	return e.invoke(ctx, call, accounts, func(tx *Tx) error {
		payer, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		acct, err := tx.create(addr, models.AccountKindVault, payer)
		if err != nil {
			return err
		}
		acct.Vault = &models.UserVault{Owner: tx.Signer(), Version: models.CurrentVersion}
		e.logger.Debug("vault initialized", "owner", tx.Signer(), "address", addr)
		return nil
	})
}

func ownerAccounts(owner models.Identity) []models.Address {
	return []models.Address{models.PauseConfigAddress(), models.WalletAddress(owner), models.VaultAddress(owner)}
}

// ownVault loads the signer's vault and checks the stored owner.
func (tx *Tx) ownVault() (*models.Account, error) {
	acct, err := tx.vault(models.VaultAddress(tx.Signer()))
	if err != nil {
		return nil, err
	}
	if acct.Vault.Owner != tx.Signer() {
		return nil, ErrUnauthorized
	}
	return acct, nil
}

// Deposit moves amount from the caller's wallet into their vault.
func (e *Engine) Deposit(ctx context.Context, call Call, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return e.invoke(ctx, call, ownerAccounts(call.Signer), func(tx *Tx) error {
		if err := tx.requireActive(); err != nil {
			return err
		}
		vault, err := tx.ownVault()
		if err != nil {
			return err
		}
		wallet, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		if err := tx.transfer(wallet, vault, amount, ErrInsufficientFunds); err != nil {
			return err
		}
		e.logger.Debug("deposit", "owner", tx.Signer(), "amount", amount, "balance", vault.Lamports)
		return nil
	})
}

// Withdraw pays amount from the caller's vault back to their wallet. Any
// unsettled two-phase bet blocks it.
func (e *Engine) Withdraw(ctx context.Context, call Call, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return e.invoke(ctx, call, ownerAccounts(call.Signer), func(tx *Tx) error {
		if err := tx.requireActive(); err != nil {
			return err
		}
		vault, err := tx.ownVault()
		if err != nil {
			return err
		}
		if vault.Vault.ActiveGames != 0 {
			return ErrGamesInProgress.withf("%d active", vault.Vault.ActiveGames)
		}
		wallet, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		if err := tx.transfer(vault, wallet, amount, ErrInsufficientFunds); err != nil {
			return err
		}
		e.logger.Debug("withdraw", "owner", tx.Signer(), "amount", amount, "balance", vault.Lamports)
		return nil
	})
}
