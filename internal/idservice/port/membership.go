package port

import "github.com/anthanhphan/go-distributed-id-generator/pkg/gossip"

// MembershipPort defines the interface for cluster membership.
type MembershipPort interface {
	// Join joins an existing cluster using a list of seed nodes.
	Join(seeds []string) error

	// Leave gracefully leaves the cluster.
	Leave() error

	// Members returns the known peers.
	Members() []gossip.Peer

	// Conflicts returns peers advertising the local origin/process pair.
	Conflicts() []gossip.Peer
}
