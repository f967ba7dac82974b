package pools

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"

	"forgedex/internal/model"
)

// Version fingerprints a pool set: Keccak256 over every pool's key, LP asset,
// atomic reserves and LP supply, in key then LP asset order. Equal pool states give equal
// versions regardless of scan order.
func Version(pools []model.Pool) string {
	sorted := make([]model.Pool, len(pools))
	copy(sorted, pools)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].LPAsset < sorted[j].LPAsset
	})

	var buf bytes.Buffer
	for _, p := range sorted {
		buf.WriteString(p.Key)
		buf.WriteByte('|')
		buf.WriteString(p.LPAsset)
		buf.WriteByte('|')
		buf.WriteString(p.ReservesAtomic[0].String())
		buf.WriteByte('|')
		buf.WriteString(p.ReservesAtomic[1].String())
		buf.WriteByte('|')
		buf.WriteString(p.TotalLPSupply.String())
		buf.WriteByte('\n')
	}
	return crypto.Keccak256Hash(buf.Bytes()).Hex()
}
