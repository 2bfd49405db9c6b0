package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// displayAddressLength is the number of leading characters kept when an
// address has no reverse name, e.g. "0x10359".
const displayAddressLength = 7

// NameResolver performs reverse name lookups. An empty name with a nil error
// means the address has no name.
type NameResolver interface {
	LookupAddress(ctx context.Context, addr common.Address) (string, error)
}

// IdentityService renders addresses for display.
type IdentityService struct {
	resolver NameResolver
	logger   *slog.Logger
}

// NewIdentityService creates an identity service. A nil resolver always falls
// back to truncated addresses.
func NewIdentityService(resolver NameResolver, logger *slog.Logger) *IdentityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{resolver: resolver, logger: logger}
}

// EnsOrAddr returns the reverse name for address, or the truncated address
// when there is none or the lookup fails.
func (s *IdentityService) EnsOrAddr(ctx context.Context, address string) string {
	if s.resolver == nil || !common.IsHexAddress(address) {
		return TruncateAddress(address)
	}

	name, err := s.resolver.LookupAddress(ctx, common.HexToAddress(address))
	if err != nil {
		s.logger.Warn("Reverse name lookup failed",
			slog.String("address", address),
			slog.String("error", err.Error()),
		)
		return TruncateAddress(address)
	}
	if name = strings.TrimSpace(name); name == "" {
		return TruncateAddress(address)
	}
	return name
}

// TruncateAddress keeps the first seven characters of address.
func TruncateAddress(address string) string {
	if len(address) <= displayAddressLength {
		return address
	}
	return address[:displayAddressLength]
}
