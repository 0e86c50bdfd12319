package main

import (
	"context"
	"fmt"

	"github.com/bsc-digital-identity/zk-compliance/internal/app/catalog"
	"github.com/bsc-digital-identity/zk-compliance/internal/app/config"
	"github.com/bsc-digital-identity/zk-compliance/internal/app/handlers"
	"github.com/bsc-digital-identity/zk-compliance/internal/app/workers"
	"github.com/bsc-digital-identity/zk-compliance/pkg/babyjub"
	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
	"github.com/bsc-digital-identity/zk-compliance/pkg/ledger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/logger"
	"github.com/bsc-digital-identity/zk-compliance/pkg/proofrequest"
	"github.com/bsc-digital-identity/zk-compliance/pkg/rabbitmq"
	"github.com/bsc-digital-identity/zk-compliance/pkg/store"
	"github.com/bsc-digital-identity/zk-compliance/pkg/zkp"
)

type node struct {
	handler *handlers.Handler
	workers []rabbitmq.WorkerService
	closers []func() error
}

func (n *node) close() {
	if n == nil {
		return
	}
	for _, c := range n.closers {
		_ = c()
	}
}

func wire(ctx context.Context, cfg config.ComplianceNodeConfig, log *logger.Logger) (*node, error) {
	n := &node{}

	fetcher, closeFetcher, err := catalog.NewFetcher(ctx, cfg.ArtifactsConf, log.Component("artifacts"))
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, closeFetcher)
	cat, err := catalog.Load(ctx, fetcher, cfg.ArtifactsConf, log.Component("catalog"))
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.GetDatabaseConfig(), log)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		n.closers = append(n.closers, sqlDB.Close)
	}

	bj := babyjub.NewContext()
	l, err := newLedger(cfg, bj.Field(), log.Component("ledger"))
	if err != nil {
		return nil, err
	}

	outbox := store.NewOutboxRepository(db)
	proofRequests := proofrequest.NewService(l, zkp.NewVerifier(log), cat.Circuits, cat.Policies, bj.Field(),
		proofrequest.WithLogger(log.Component("proof-requests")))
	investigations := investigation.NewService(investigation.Deps{
		Ledger:        l,
		ProofRequests: l,
		Circuits:      cat.Circuits,
		Store:         store.NewInvestigationRepository(db),
		Outbox:        outbox,
		BabyJub:       bj,
	}, investigation.WithLogger(log.Component("investigations")))

	n.handler = handlers.NewHandler(proofRequests, investigations, cat, bj, log.Component("rest"))

	if publisher := rabbitmq.GetPublisher(cfg.OutboxConf.PublisherAlias); publisher != nil {
		n.workers = append(n.workers,
			workers.NewOutboxWorker(publisher, outbox, cfg.OutboxConf.Schedule, cfg.OutboxConf.BatchSize, log.Component("outbox")))
	} else {
		log.Warnf("No publisher %q configured, outbox events stay queued", cfg.OutboxConf.PublisherAlias)
	}

	if cfg.ShareRevealsConf.ConsumerAlias != "" {
		consumer := rabbitmq.GetConsumer(cfg.ShareRevealsConf.ConsumerAlias)
		if consumer == nil {
			return nil, fmt.Errorf("share reveal consumer %q is not configured", cfg.ShareRevealsConf.ConsumerAlias)
		}
		results := rabbitmq.GetPublisher(cfg.ShareRevealsConf.ResultPublisherAlias)
		n.workers = append(n.workers, workers.NewShareRevealWorker(consumer, results, investigations, bj, log.Component("share-reveals")))
	}
	return n, nil
}

func newLedger(cfg config.ComplianceNodeConfig, f *field.Field, log *logger.Logger) (ledger.Ledger, error) {
	if !cfg.UsesSolana() {
		log.Warn("No solana section configured, using the in-memory ledger")
		return ledger.NewMemory(nil), nil
	}
	solanaCfg, err := cfg.SolanaConf.ConvertToDomain()
	if err != nil {
		return nil, err
	}
	log.Infof("Using solana program %s at %s", solanaCfg.ProgramID, solanaCfg.RpcUrl)
	return ledger.DialSolana(solanaCfg, f, log), nil
}
