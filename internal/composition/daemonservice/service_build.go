package daemonservice

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modelmarket/go-backend/internal/adminsecret"
	"modelmarket/go-backend/internal/app"
	"modelmarket/go-backend/internal/bootstrap/daemonconfig"
	"modelmarket/go-backend/internal/composition/daemon"
	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	"modelmarket/go-backend/internal/domains/marketplace/adapters/outbox"
	"modelmarket/go-backend/internal/metrics"
	"modelmarket/go-backend/internal/platform/privacylog"
	"modelmarket/go-backend/internal/waku"
)

const (
	ephemeralEnv           = "MKT_EPHEMERAL"
	notificationBacklog    = 2048
	payoutJournalFileName  = "payouts.enc"
	generatedSecretFileTxt = "admin_secret.txt"
)

var ErrAdminAddressRequired = errors.New("marketplace admin address is required for a new ledger")

// Options carries test seams; production leaves it zero.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// NewServiceForDaemon builds a ready service. A non-empty dataDir overrides
// the configured storage dir. MKT_EPHEMERAL=true keeps everything in memory.
func NewServiceForDaemon(cfg daemonconfig.Config, dataDir string) (*Service, error) {
	return newServiceWithOptions(cfg, dataDir, Options{})
}

func newServiceWithOptions(cfg daemonconfig.Config, dataDir string, opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = privacylog.NewLogger(os.Stderr, privacylog.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	}

	fees, err := marketdomain.NewFeeSchedule(cfg.Marketplace.FeePercentage)
	if err != nil {
		return nil, fmt.Errorf("marketplace fee percentage %d: %w", cfg.Marketplace.FeePercentage, err)
	}
	var adminAddress marketdomain.Address
	if raw := strings.TrimSpace(cfg.Marketplace.AdminAddress); raw != "" {
		adminAddress, err = marketdomain.NormalizeAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("marketplace admin address: %w", err)
		}
	}

	ephemeral, err := envBoolWithFallback(ephemeralEnv, false)
	if err != nil {
		return nil, err
	}
	var bundle daemon.StorageBundle
	if !ephemeral {
		if strings.TrimSpace(dataDir) == "" {
			dataDir = cfg.Storage.DataDir
		}
		bundle, err = daemon.ResolveStorage(dataDir)
		if err != nil {
			return nil, err
		}
	}

	store := marketdomain.NewSnapshotStore()
	secrets := adminsecret.NewStore()
	journal := newPayoutJournal("", "")
	defaultSecretFile := ""
	if !ephemeral {
		store.Configure(bundle.SnapshotPath, bundle.Passphrase)
		secrets.Configure(bundle.AdminSecretPath, bundle.Passphrase)
		journal = newPayoutJournal(filepath.Join(bundle.Dir, payoutJournalFileName), bundle.Passphrase)
		defaultSecretFile = filepath.Join(bundle.Dir, generatedSecretFileTxt)
	}
	if adminAddress == "" && !fileExists(bundle.SnapshotPath) {
		return nil, fmt.Errorf("%w: set marketplace.adminAddress or MKT_ADMIN_ADDRESS", ErrAdminAddressRequired)
	}

	registry := metrics.New()
	svc := &Service{
		payouts: outbox.New(0),
		hub:     app.NewNotificationHub(notificationBacklog),
		node:    waku.NewNode(cfg.Notifications),
		relay:   &broadcastRelay{},
		metrics: registry,
		logger:  logger,
	}
	info, errorf := svc.ledgerLogHooks()

	restored, err := journal.load()
	if err != nil {
		return nil, daemon.ExplainStorageError(err)
	}
	if err := svc.payouts.Restore(restored); err != nil {
		return nil, err
	}
	svc.payouts.Persist = journal.persist
	svc.payouts.Now = opts.Now
	svc.payouts.LogInfo = info

	outcome, err := bootstrapAdminSecret(secrets, defaultSecretFile)
	if err != nil {
		return nil, daemon.ExplainStorageError(err)
	}

	fanout := &app.EventFanout{Hub: svc.hub, Metrics: registry, LogInfo: info}
	if svc.node.Config().Transport != waku.TransportNone {
		fanout.Broadcast = svc.relay
	}
	ledger := &marketdomain.Service{
		Secrets:  secrets,
		Payouts:  svc.payouts,
		Events:   fanout,
		Metrics:  registry,
		Now:      opts.Now,
		LogInfo:  info,
		LogError: errorf,
	}
	if store.Configured() {
		ledger.Persist = store.Persist
	}

	state, err := store.Bootstrap(marketdomain.AdminConfig{
		AdminAddress:  adminAddress,
		FeePercentage: fees.FeePercentage,
		ProfitRate:    fees.ProfitRate,
		FeedbackPrice: cfg.Marketplace.FeedbackPrice,
	})
	if err != nil {
		return nil, daemon.ExplainStorageError(err)
	}
	if err := ledger.Load(state); err != nil {
		return nil, err
	}
	svc.Service = ledger

	if outcome.generatedPath != "" {
		svc.logInfo("bootstrap", "admin secret generated", "file", outcome.generatedPath)
	}
	if outcome.envIgnored {
		svc.logWarn("bootstrap", "persisted admin secret kept; rotate with admin.change_secret", "env", adminSecretEnv)
	}
	svc.logInfo("bootstrap", "marketplace ledger ready",
		"persistent", store.Configured(),
		"models", ledger.CountModels(),
		"rentals", ledger.CountRentals(),
		"pending_payouts", svc.payouts.Pending(),
		"transport", svc.node.Config().Transport,
	)
	return svc, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return !errors.Is(err, fs.ErrNotExist)
	}
	return !info.IsDir()
}
