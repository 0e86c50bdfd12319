package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bsc-digital-identity/zk-compliance/pkg/investigation"
)

// InvestigationRepository is the local investigation.Store.
type InvestigationRepository struct {
	db *gorm.DB
}

func NewInvestigationRepository(db *gorm.DB) *InvestigationRepository {
	return &InvestigationRepository{db: db}
}

func (r *InvestigationRepository) SaveInvestigation(ctx context.Context, rec investigation.Record) error {
	body, err := rec.Serialize()
	if err != nil {
		return err
	}
	revealed := 0
	for _, s := range rec.SecretShares {
		if s.Status == investigation.ShareRevealed {
			revealed++
		}
	}
	snap := InvestigationSnapshot{
		InvestigationId: rec.ID,
		ProofRequest:    rec.ProofRequest,
		Status:          rec.Status.String(),
		Revealed:        revealed,
		Record:          string(body),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&snap).Error
}

func (r *InvestigationRepository) GetInvestigation(ctx context.Context, id string) (investigation.Record, error) {
	var snap InvestigationSnapshot
	err := r.db.WithContext(ctx).First(&snap, "investigation_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return investigation.Record{}, fmt.Errorf("store: %s: %w", id, investigation.ErrNotFound)
	}
	if err != nil {
		return investigation.Record{}, err
	}
	return decode(snap)
}

// ByProofRequest lists the investigations targeting one proof request.
func (r *InvestigationRepository) ByProofRequest(ctx context.Context, address string) ([]investigation.Record, error) {
	var snaps []InvestigationSnapshot
	if err := r.db.WithContext(ctx).
		Where("proof_request = ?", address).
		Order("investigation_id").
		Find(&snaps).Error; err != nil {
		return nil, err
	}
	out := make([]investigation.Record, 0, len(snaps))
	for _, s := range snaps {
		rec, err := decode(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decode(snap InvestigationSnapshot) (investigation.Record, error) {
	var rec investigation.Record
	if err := json.Unmarshal([]byte(snap.Record), &rec); err != nil {
		return investigation.Record{}, fmt.Errorf("store: decode %s: %w", snap.InvestigationId, err)
	}
	return rec, nil
}
