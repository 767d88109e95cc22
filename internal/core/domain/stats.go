package domain

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// BlockStats holds the per-block reward figures, in satoshis.
// Values for a given height never change once the block is buried.
type BlockStats struct {
	Subsidy  int64
	TotalFee int64
}

// Reward is subsidy plus fees.
func (s BlockStats) Reward() int64 {
	return s.Subsidy + s.TotalFee
}

// MarshalJSON encodes stats as the persisted pair [subsidy, totalfee].
func (s BlockStats) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 32)
	b = append(b, '[')
	b = strconv.AppendInt(b, s.Subsidy, 10)
	b = append(b, ',')
	b = strconv.AppendInt(b, s.TotalFee, 10)
	b = append(b, ']')
	return b, nil
}

// UnmarshalJSON decodes the persisted pair [subsidy, totalfee].
func (s *BlockStats) UnmarshalJSON(data []byte) error {
	var pair []int64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode block stats: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode block stats: expected 2 values, got %d", len(pair))
	}
	s.Subsidy, s.TotalFee = pair[0], pair[1]
	return nil
}
