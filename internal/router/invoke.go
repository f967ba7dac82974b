// Package router builds invoke_contract payloads for the DEX router contract.
// Signing and submission happen in the wallet.
package router

import (
	"fmt"

	"github.com/shopspring/decimal"

	"forgedex/internal/xvm"
)

// Router entry chunks.
const (
	ChunkAddLiquidity    uint16 = 10
	ChunkRemoveLiquidity uint16 = 11
	ChunkSwap            uint16 = 12
)

const DefaultMaxGas uint64 = 200000000

// Deposit is an atomic amount attached to an invocation.
type Deposit struct {
	Amount uint64 `json:"amount"`
}

// Invocation is the invoke_contract body.
type Invocation struct {
	Contract   string             `json:"contract"`
	MaxGas     uint64             `json:"max_gas"`
	ChunkID    uint16             `json:"chunk_id"`
	Parameters []any              `json:"parameters"`
	Deposits   map[string]Deposit `json:"deposits"`
}

// Transaction wraps an invocation the way the wallet's build_transaction expects.
type Transaction struct {
	InvokeContract Invocation `json:"invoke_contract"`
	Broadcast      bool       `json:"broadcast"`
}

// Builder creates invocations against one router contract.
type Builder struct {
	Contract string
	MaxGas   uint64
}

func NewBuilder(contract string, maxGas uint64) Builder {
	if maxGas == 0 {
		maxGas = DefaultMaxGas
	}
	return Builder{Contract: contract, MaxGas: maxGas}
}

// AddLiquidity deposits both assets into the hashA/hashB pool.
func (b Builder) AddLiquidity(hashA, hashB string, amountA, amountB decimal.Decimal) (Transaction, error) {
	if hashA == hashB {
		return Transaction{}, fmt.Errorf("add liquidity: identical assets %s", hashA)
	}
	depA, err := atomicAmount(amountA)
	if err != nil {
		return Transaction{}, fmt.Errorf("add liquidity amount A: %w", err)
	}
	depB, err := atomicAmount(amountB)
	if err != nil {
		return Transaction{}, fmt.Errorf("add liquidity amount B: %w", err)
	}
	return b.build(ChunkAddLiquidity,
		[]any{xvm.HashParam(hashA), xvm.HashParam(hashB)},
		map[string]Deposit{hashA: {Amount: depA}, hashB: {Amount: depB}},
	)
}

// RemoveLiquidity burns lpAmount of the pool's LP asset.
func (b Builder) RemoveLiquidity(lpAsset string, lpAmount decimal.Decimal) (Transaction, error) {
	dep, err := atomicAmount(lpAmount)
	if err != nil {
		return Transaction{}, fmt.Errorf("remove liquidity amount: %w", err)
	}
	return b.build(ChunkRemoveLiquidity,
		[]any{xvm.HashParam(lpAsset)},
		map[string]Deposit{lpAsset: {Amount: dep}},
	)
}

// Swap sells amountIn of hashIn for at least amountOutMin of hashOut.
func (b Builder) Swap(hashIn, hashOut string, amountIn, amountOutMin decimal.Decimal) (Transaction, error) {
	if hashIn == hashOut {
		return Transaction{}, fmt.Errorf("swap: identical assets %s", hashIn)
	}
	in, err := atomicAmount(amountIn)
	if err != nil {
		return Transaction{}, fmt.Errorf("swap amount in: %w", err)
	}
	minOut, err := atomicAmount(amountOutMin)
	if err != nil {
		return Transaction{}, fmt.Errorf("swap minimum out: %w", err)
	}
	return b.build(ChunkSwap,
		[]any{xvm.HashParam(hashIn), xvm.HashParam(hashOut), xvm.U64Param(minOut)},
		map[string]Deposit{hashIn: {Amount: in}},
	)
}

func (b Builder) build(chunk uint16, params []any, deposits map[string]Deposit) (Transaction, error) {
	if b.Contract == "" {
		return Transaction{}, fmt.Errorf("router contract is required")
	}
	maxGas := b.MaxGas
	if maxGas == 0 {
		maxGas = DefaultMaxGas
	}
	return Transaction{
		InvokeContract: Invocation{
			Contract:   b.Contract,
			MaxGas:     maxGas,
			ChunkID:    chunk,
			Parameters: params,
			Deposits:   deposits,
		},
		Broadcast: true,
	}, nil
}

var maxU64 = decimal.NewFromUint64(^uint64(0))

// atomicAmount floors an atomic amount to a u64.
func atomicAmount(amount decimal.Decimal) (uint64, error) {
	v := amount.Floor()
	if v.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount)
	}
	if v.GreaterThan(maxU64) {
		return 0, fmt.Errorf("amount %s exceeds u64", amount)
	}
	return v.BigInt().Uint64(), nil
}
