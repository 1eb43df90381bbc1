// Package daemonservice composes the marketplace ledger with its daemon-side
// collaborators: encrypted snapshot persistence, the admin secret store, the
// payout outbox, the notification hub and the indexer broadcast node.
//
// Responsibilities:
// - Build a ready service from resolved configuration and environment secrets.
// - Own the networking lifecycle of the broadcast transport.
// - Expose the combined surface the RPC server depends on.
//
// Non-responsibilities:
// - Ledger rules and escrow math (implemented in internal/domains/marketplace).
// - Wire encoding of requests and errors (internal/adapters/rpc).
//
//goland:noinspection GoCommentStart
package daemonservice
