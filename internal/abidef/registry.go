// Package abidef holds the canonical contract function signatures the solver
// submits against. Selectors are pinned constants: they are verified by tests
// against the signature strings, never recomputed from hand-typed input at
// call time.
package abidef

import (
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	ContractSettlerCompact = "SettlerCompact"
	ContractCoinFiller     = "CoinFiller"
	ContractTheCompact     = "TheCompact"
)

// 4-byte selectors of the two calls the solver encodes.
var (
	FinaliseSelector = [4]byte{0xdd, 0x1f, 0xf4, 0x85}
	FillSelector     = [4]byte{0x56, 0x3b, 0x9b, 0xbc}
)

const (
	// finalise(order, signatures, timestamps, solvers, destination, calls)
	FinaliseSignature = "finalise((address,uint256,uint256,uint32,uint32,address,uint256[2][],(bytes32,bytes32,uint256,bytes32,uint256,bytes32,bytes,bytes)[]),bytes,uint32[],bytes32[],bytes32,bytes)"
	// fill(fillDeadline, orderId, output, proposedSolver)
	FillSignature = "fill(uint32,bytes32,(bytes32,bytes32,uint256,bytes32,uint256,bytes32,bytes,bytes),bytes32)"
)

var registry = map[string]map[string]string{
	ContractSettlerCompact: {
		"finalise": FinaliseSignature,
	},
	ContractCoinFiller: {
		"fill": FillSignature,
	},
	ContractTheCompact: {
		"deposit":             "deposit(address,uint256)",
		"withdraw":            "withdraw(address,uint256)",
		"__registerAllocator": "__registerAllocator(address,bytes)",
	},
}

// Signature returns the canonical signature string of contract.function.
func Signature(contract, function string) (string, error) {
	funcs, ok := registry[contract]
	if !ok {
		return "", errors.Errorf("unknown contract %q", contract)
	}
	sig, ok := funcs[function]
	if !ok {
		return "", errors.Errorf("contract %q has no function %q", contract, function)
	}
	return sig, nil
}

// Functions lists the registered function names of a contract.
func Functions(contract string) ([]string, error) {
	funcs, ok := registry[contract]
	if !ok {
		return nil, errors.Errorf("unknown contract %q", contract)
	}
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	return names, nil
}
