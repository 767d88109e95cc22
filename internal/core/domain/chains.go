package domain

import "fmt"

type ChainID uint64
type ChainName string

const (
	// Chain IDs
	ChainIDArbitrum        ChainID = 42161
	ChainIDArbitrumSepolia ChainID = 421614
	ChainIDHardhat         ChainID = 31337

	// Chain Names
	ChainNameArbitrum        ChainName = "ARBITRUM_ONE"
	ChainNameArbitrumSepolia ChainName = "ARBITRUM_SEPOLIA"
	ChainNameHardhat         ChainName = "HARDHAT"
)

// ChainIDToName maps the EVM chains the oracle can be deployed on.
var ChainIDToName = map[ChainID]ChainName{
	ChainIDArbitrum:        ChainNameArbitrum,
	ChainIDArbitrumSepolia: ChainNameArbitrumSepolia,
	ChainIDHardhat:         ChainNameHardhat,
}

// LookupChain returns the chain name for id or ErrUnsupportedChain.
func LookupChain(id ChainID) (ChainName, error) {
	name, ok := ChainIDToName[id]
	if !ok {
		return "", fmt.Errorf("chain with id %d: %w", id, ErrUnsupportedChain)
	}
	return name, nil
}
