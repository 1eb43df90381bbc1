package waku

import (
	"fmt"
	"strings"

	ma "github.com/multiformats/go-multiaddr"
)

// ValidateBootstrapNodes rejects entries that are not dialable multiaddrs
// with a /p2p peer id, before any transport is started.
func ValidateBootstrapNodes(nodes []string) error {
	for i, raw := range nodes {
		addr := strings.TrimSpace(raw)
		if addr == "" {
			return fmt.Errorf("bootstrap node %d is empty", i)
		}
		parsed, err := ma.NewMultiaddr(addr)
		if err != nil {
			return fmt.Errorf("bootstrap node %d: %w", i, err)
		}
		if _, err := parsed.ValueForProtocol(ma.P_P2P); err != nil {
			return fmt.Errorf("bootstrap node %d has no /p2p peer id", i)
		}
	}
	return nil
}
