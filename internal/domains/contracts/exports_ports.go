package contracts

import contractports "modelmarket/go-backend/internal/domains/contracts/ports"

type MarketAPI = contractports.MarketAPI
type AdminAPI = contractports.AdminAPI
type ReadAPI = contractports.ReadAPI
type PayoutAPI = contractports.PayoutAPI
type MarketplaceAPI = contractports.MarketplaceAPI
type DaemonService = contractports.DaemonService
type NotificationEvent = contractports.NotificationEvent
type NotificationStatus = contractports.NotificationStatus
