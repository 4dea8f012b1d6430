package provider

import (
	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/infrastructure/walletloader"
)

// walletFileProvider reads owners from a line file on every call so edits
// are picked up without a restart.
type walletFileProvider struct {
	path   string
	logger port.Logger
}

// NewWalletProvider creates a WalletProvider over the wallets file at path.
func NewWalletProvider(path string, logger port.Logger) port.WalletProvider {
	return &walletFileProvider{path: path, logger: logger}
}

// GetWallets returns the valid, deduplicated owners of the file.
func (p *walletFileProvider) GetWallets() ([]entity.Wallet, error) {
	skipped := 0
	wallets, err := walletloader.LoadWallets(p.path, func(lineNum int, line string) {
		skipped++
		p.logger.Warn("Skipping invalid owner address", "path", p.path, "line", lineNum, "address", line)
	})
	if err != nil {
		return nil, err
	}

	byFamily := make(map[entity.NetworkFamily]int, 2)
	for _, w := range wallets {
		byFamily[entity.AccountFamily(w.Address)]++
	}
	p.logger.Info("Owners loaded",
		"path", p.path, "evm", byFamily[entity.FamilyEVM], "move", byFamily[entity.FamilyMove], "skipped", skipped)
	return wallets, nil
}
