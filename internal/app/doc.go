// Package app holds runtime pieces shared by the daemon that are independent
// of transport protocols.
//
// Responsibilities:
// - Keep the notification replay history served to stream subscribers.
// - Fan committed ledger events out to local subscribers and indexers.
//
// Non-responsibilities:
// - JSON-RPC/HTTP protocol handling and endpoint-level mapping.
// - Ledger rules; those live in the marketplace domain.
package app
