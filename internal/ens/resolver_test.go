package ens

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAddr          = common.HexToAddress("0x0dd7d78ed27632839cd2a929ee570ead346c19fc")
	testOtherAddr     = common.HexToAddress("0x10359616ab170c1bd6c478a40c6715a49ba25efc")
	testReverseRes    = common.HexToAddress("0xA2C122BE93b0074270ebeE7f6b7292C7deB45047")
	testPublicRes     = common.HexToAddress("0x4976fb03C32e5B8cfe2b6cCB31c09Ba78EBaBa41")
	errRPCUnavailable = errors.New("rpc unavailable")
)

type callKey struct {
	to   common.Address
	data string
}

// fakeCaller answers eth_call by exact (to, calldata) match.
type fakeCaller struct {
	responses map[callKey][]byte
	err       error
	calls     int
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[callKey{to: *call.To, data: string(call.Data)}], nil
}

func (f *fakeCaller) on(t *testing.T, r *Resolver, to common.Address, method string, node [32]byte, result any) {
	t.Helper()
	contract := r.resolverABI
	if method == "resolver" {
		contract = r.registryABI
	}
	data, err := contract.Pack(method, node)
	require.NoError(t, err)
	out, err := contract.Methods[method].Outputs.Pack(result)
	require.NoError(t, err)
	if f.responses == nil {
		f.responses = map[callKey][]byte{}
	}
	f.responses[callKey{to: to, data: string(data)}] = out
}

func newTestResolver(t *testing.T, caller *fakeCaller) *Resolver {
	t.Helper()
	r, err := NewResolver(caller)
	require.NoError(t, err)
	return r
}

// registerName wires reverse and forward records for name pointing at forward.
func registerName(t *testing.T, caller *fakeCaller, r *Resolver, addr common.Address, name string, forward common.Address) {
	t.Helper()
	reverseNode := NameHash(ReverseName(addr))
	caller.on(t, r, RegistryAddress, "resolver", reverseNode, testReverseRes)
	caller.on(t, r, testReverseRes, "name", reverseNode, name)

	forwardNode := NameHash(name)
	caller.on(t, r, RegistryAddress, "resolver", forwardNode, testPublicRes)
	caller.on(t, r, testPublicRes, "addr", forwardNode, forward)
}

func TestNameHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
		{"FOO.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}

	for _, tt := range tests {
		node := NameHash(tt.name)
		assert.Equal(t, tt.want, common.BytesToHash(node[:]).Hex(), tt.name)
	}
}

func TestReverseName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0dd7d78ed27632839cd2a929ee570ead346c19fc.addr.reverse", ReverseName(testAddr))
}

func TestResolver_LookupAddress(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	r := newTestResolver(t, caller)
	registerName(t, caller, r, testAddr, "borrower.eth", testAddr)

	name, err := r.LookupAddress(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, "borrower.eth", name)
}

func TestResolver_LookupAddress_ForwardMismatch(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	r := newTestResolver(t, caller)
	registerName(t, caller, r, testAddr, "vitalik.eth", testOtherAddr)

	name, err := r.LookupAddress(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestResolver_LookupAddress_NoReverseRecord(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{}
	r := newTestResolver(t, caller)

	name, err := r.LookupAddress(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Equal(t, 1, caller.calls)
}

func TestResolver_LookupAddress_RPCError(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{err: errRPCUnavailable}
	r := newTestResolver(t, caller)

	name, err := r.LookupAddress(context.Background(), testAddr)
	assert.ErrorIs(t, err, errRPCUnavailable)
	assert.Empty(t, name)
}

func TestDial_RequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := Dial(context.Background(), "  ")
	assert.Error(t, err)
}
