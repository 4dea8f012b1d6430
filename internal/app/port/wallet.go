package port

import "portfolio_aggregator/internal/domain/entity"

// WalletProvider lists the owners the checker reports on when none are given.
type WalletProvider interface {
	GetWallets() ([]entity.Wallet, error)
}
