package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"portfolio_aggregator/internal/domain/entity"
)

// DefaultWalletFilePath is used when no file is configured.
const DefaultWalletFilePath = "data/wallets.txt"

// ValidAddress accepts EVM (20 byte) and Move (32 byte) hex account addresses.
func ValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	if len(address) != 42 && len(address) != 66 {
		return false
	}
	for _, r := range address[2:] {
		if !isHex(r) {
			return false
		}
	}
	return true
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// LoadWallets reads one address per line. Blank lines and # comments are
// ignored, invalid addresses are reported through skipped.
func LoadWallets(filePath string, skipped func(lineNum int, line string)) ([]entity.Wallet, error) {
	if filePath == "" {
		filePath = DefaultWalletFilePath
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", filePath, err)
	}
	defer file.Close()

	var wallets []entity.Wallet
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !ValidAddress(line) {
			if skipped != nil {
				skipped(lineNum, line)
			}
			continue
		}
		if _, dup := seen[strings.ToLower(line)]; dup {
			continue
		}
		seen[strings.ToLower(line)] = struct{}{}
		wallets = append(wallets, entity.Wallet{Address: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", filePath, err)
	}
	return wallets, nil
}
