package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseHash validates a 32-byte hex hash, with or without 0x, and returns it
// in the daemon's lowercase form without prefix.
func ParseHash(input string) (string, error) {
	input = strings.TrimSpace(input)
	trimmed := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	data, err := hexutil.Decode("0x" + trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid hash: %s", input)
	}
	if len(data) != common.HashLength {
		return "", fmt.Errorf("invalid hash length: %s", input)
	}
	return strings.TrimPrefix(common.BytesToHash(data).Hex(), "0x"), nil
}
