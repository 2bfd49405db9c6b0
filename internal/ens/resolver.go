// Package ens resolves Ethereum addresses to their primary ENS names.
package ens

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/crypto/sha3"
)

// RegistryAddress is the ENS registry on mainnet and the public testnets.
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

const registryABI = `[{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"resolver","outputs":[{"name":"","type":"address"}],"type":"function"}]`

const resolverABI = `[
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"node","type":"bytes32"}],"name":"addr","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

// ContractCaller is the subset of the Ethereum RPC used for ENS lookups.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("eth rpc endpoint required")
	}
	return ethclient.DialContext(ctx, trimmed)
}

// Resolver performs reverse resolution against the ENS registry and checks
// that the returned name resolves forward to the same address.
type Resolver struct {
	caller      ContractCaller
	registry    common.Address
	registryABI abi.ABI
	resolverABI abi.ABI
}

// NewResolver creates a Resolver using the default registry.
func NewResolver(caller ContractCaller) (*Resolver, error) {
	reg, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	res, err := abi.JSON(strings.NewReader(resolverABI))
	if err != nil {
		return nil, fmt.Errorf("parse resolver abi: %w", err)
	}
	return &Resolver{
		caller:      caller,
		registry:    RegistryAddress,
		registryABI: reg,
		resolverABI: res,
	}, nil
}

// LookupAddress returns the primary name for addr, or "" if none is set or
// the reverse record does not resolve back to addr.
func (r *Resolver) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	reverseNode := NameHash(ReverseName(addr))
	name, err := r.lookupString(ctx, reverseNode, "name")
	if err != nil || name == "" {
		return "", err
	}

	forwardNode := NameHash(name)
	resolved, err := r.lookupAddress(ctx, forwardNode)
	if err != nil {
		return "", err
	}
	if resolved != addr {
		return "", nil
	}
	return name, nil
}

func (r *Resolver) resolverOf(ctx context.Context, node [32]byte) (common.Address, error) {
	out, err := r.call(ctx, r.registry, r.registryABI, "resolver", node)
	if err != nil || len(out) == 0 {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (r *Resolver) lookupString(ctx context.Context, node [32]byte, method string) (string, error) {
	resolver, err := r.resolverOf(ctx, node)
	if err != nil || resolver == (common.Address{}) {
		return "", err
	}
	out, err := r.call(ctx, resolver, r.resolverABI, method, node)
	if err != nil || len(out) == 0 {
		return "", err
	}
	return strings.TrimSpace(out[0].(string)), nil
}

func (r *Resolver) lookupAddress(ctx context.Context, node [32]byte) (common.Address, error) {
	resolver, err := r.resolverOf(ctx, node)
	if err != nil || resolver == (common.Address{}) {
		return common.Address{}, err
	}
	out, err := r.call(ctx, resolver, r.resolverABI, "addr", node)
	if err != nil || len(out) == 0 {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// call packs and executes a view call. An empty return (no contract at to)
// yields no values.
func (r *Resolver) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// ReverseName returns the reverse-registrar name for addr.
func ReverseName(addr common.Address) string {
	return strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x")) + ".addr.reverse"
}

// NameHash implements the ENS namehash algorithm.
func NameHash(name string) [32]byte {
	var node [32]byte
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := keccak256([]byte(labels[i]))
		copy(node[:], keccak256(node[:], labelHash))
	}
	return node
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
