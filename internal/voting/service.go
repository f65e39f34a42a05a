package voting

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
)

// Service is the vote ledger. It enforces one live vote per (voter,
// target), applies create/update/retract semantics and keeps every
// registered cache field in sync within the same transaction.
type Service struct {
	db  *gorm.DB
	reg *Registry
}

// NewService creates a voting service over the given database and cache
// field registry.
func NewService(db *gorm.DB, reg *Registry) (*Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if reg == nil {
		return nil, ErrRegistryNil
	}

	return &Service{db: db, reg: reg}, nil
}

// ledgerRow mirrors the shared shape of the vote tables.
type ledgerRow struct {
	UserID    uint64
	TargetID  uint64
	Vote      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Score is the aggregate over all live votes for one target.
type Score struct {
	// Score is the signed sum of votes.
	Score int `json:"score"`
	// NumVotes is the number of live vote rows.
	NumVotes int `json:"num_votes"`
}

// Cast records, changes or retracts (vote == 0) a vote for a target.
//
// The voter identity checks here are a fail-safe: the policy gates are the
// primary enforcement point and have already vetted the voter by the time
// this runs. Casting the identical vote twice is a no-op; no cache column
// moves.
func (s *Service) Cast(voter *models.User, kind Kind, targetID uint64, vote int) error {
	if vote < -1 || vote > 1 {
		return ErrInvalidVoteValue
	}
	if voter == nil || voter.ID == 0 {
		return ErrUnauthenticated
	}
	if !voter.Active {
		return ErrAccountDisabled
	}

	table, ok := kindTables[kind]
	if !ok {
		return ErrUnknownVoteKind
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var (
			prev   ledgerRow
			exists = true
		)

		err := tx.Table(table).
			Where("user_id = ? AND target_id = ?", voter.ID, targetID).
			Take(&prev).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
		} else if err != nil {
			return fmt.Errorf("failed to read previous vote: %w", err)
		}

		var delta int

		switch {
		case vote == 0 && !exists:
			return nil
		case vote == 0:
			delta = -prev.Vote

			err = tx.Table(table).
				Where("user_id = ? AND target_id = ?", voter.ID, targetID).
				Delete(&ledgerRow{}).Error
			if err != nil {
				return fmt.Errorf("failed to retract vote: %w", err)
			}
		case exists:
			delta = vote - prev.Vote
			if delta == 0 {
				return nil
			}

			err = tx.Table(table).
				Where("user_id = ? AND target_id = ?", voter.ID, targetID).
				Updates(map[string]interface{}{"vote": vote, "updated_at": time.Now()}).Error
			if err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}
		default:
			delta = vote

			row := ledgerRow{UserID: voter.ID, TargetID: targetID, Vote: vote}
			if err = tx.Table(table).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
		}

		if delta == 0 {
			return nil
		}

		return s.applyDelta(tx, kind, CastVote{UserID: voter.ID, TargetID: targetID, Vote: vote}, delta)
	})
}

// applyDelta adds the delta to every cache field watching the kind.
// The increment is a single atomic SET col = col + delta so concurrent
// voters never lose updates to read-modify-write races.
func (s *Service) applyDelta(tx *gorm.DB, kind Kind, v CastVote, delta int) error {
	for _, f := range s.reg.FieldsFor(kind) {
		q := tx.Table(f.Table)
		if f.Scope != nil {
			q = f.Scope(q, v)
		} else {
			q = q.Where("id = ?", v.TargetID)
		}

		err := q.Update(f.Column, gorm.Expr(f.Column+" + ?", delta)).Error
		if err != nil {
			return fmt.Errorf("failed to update cache %s.%s: %w", f.Table, f.Column, err)
		}
	}

	return nil
}

// VoteOf returns the voter's live vote for a target, 0 when none exists.
func (s *Service) VoteOf(voterID uint64, kind Kind, targetID uint64) (int, error) {
	table, ok := kindTables[kind]
	if !ok {
		return 0, ErrUnknownVoteKind
	}

	var row ledgerRow

	err := s.db.Table(table).
		Where("user_id = ? AND target_id = ?", voterID, targetID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read vote: %w", err)
	}

	return row.Vote, nil
}

// ScoreOf aggregates the sign-sum and count of all votes for a target.
// Unvoted targets score as zero, never as an error.
func (s *Service) ScoreOf(kind Kind, targetID uint64) (Score, error) {
	table, ok := kindTables[kind]
	if !ok {
		return Score{}, ErrUnknownVoteKind
	}

	var result Score

	err := s.db.Table(table).
		Select("COALESCE(SUM(vote), 0) AS score, COUNT(*) AS num_votes").
		Where("target_id = ?", targetID).
		Scan(&result).Error
	if err != nil {
		return Score{}, fmt.Errorf("failed to aggregate score: %w", err)
	}

	return result, nil
}
