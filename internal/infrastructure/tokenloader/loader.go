package tokenloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/domain/entity"
	"portfolio_aggregator/internal/pkg/utils"
)

// DefaultTokenDirectoryPath is used when no directory is configured.
const DefaultTokenDirectoryPath = "data/tokens"

// LoadTokens scans tokenDir for <networkId>.json files of active networks,
// parses them into TokenInfo slices and validates them against the network.
// Unreadable or malformed files are skipped with a warning.
func LoadTokens(tokenDir string, activeNetworkDefs []entity.NetworkDefinition, logger port.Logger) (map[entity.NetworkID][]entity.TokenInfo, error) {
	if tokenDir == "" {
		tokenDir = DefaultTokenDirectoryPath
	}
	tokensByNetwork := make(map[entity.NetworkID][]entity.TokenInfo)

	files, err := os.ReadDir(tokenDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read token directory %s: %w", tokenDir, err)
	}

	active := make(map[entity.NetworkID]entity.NetworkDefinition, len(activeNetworkDefs))
	for _, netDef := range activeNetworkDefs {
		active[netDef.ID] = netDef
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".json") {
			continue
		}

		networkID := entity.NetworkID(strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())))
		netDef, isActive := active[networkID]
		if !isActive {
			logger.Debug("Token file found for a non-active network, skipping.", "file", file.Name())
			continue
		}

		filePath := filepath.Join(tokenDir, file.Name())
		tokensInFile, err := utils.ReadJSONFile[[]entity.TokenInfo](filePath)
		if err != nil {
			logger.Warn("Failed to load tokens from file, skipping file.", "path", filePath, "error", err)
			continue
		}

		valid := make([]entity.TokenInfo, 0, len(tokensInFile))
		for _, token := range tokensInFile {
			if reason := validateToken(token, netDef); reason != "" {
				logger.Warn("Invalid token in file, skipping token.",
					"file", filePath, "token_symbol", token.Symbol, "token_address", token.Address, "reason", reason)
				continue
			}
			token.Address = entity.FormatTokenAddress(token.Address, netDef.ID)
			valid = append(valid, token)
		}

		if len(valid) > 0 {
			tokensByNetwork[netDef.ID] = append(tokensByNetwork[netDef.ID], valid...)
			logger.Info("Loaded tokens for network from file", "network", netDef.ID, "file", file.Name(), "count", len(valid))
		}
	}

	return tokensByNetwork, nil
}

func validateToken(token entity.TokenInfo, netDef entity.NetworkDefinition) string {
	if token.Decimals < 0 {
		return "negative decimals"
	}
	switch netDef.Family {
	case entity.FamilyEVM:
		if token.ChainID != netDef.ChainID {
			return fmt.Sprintf("chain id %d does not match %d", token.ChainID, netDef.ChainID)
		}
		if !strings.HasPrefix(token.Address, "0x") || len(token.Address) != 42 {
			return "not an EVM address"
		}
	case entity.FamilyMove:
		if strings.Count(token.Address, "::") != 2 {
			return "not a Move coin type"
		}
	}
	return ""
}
