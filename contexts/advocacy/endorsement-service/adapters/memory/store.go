package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	"soapbox/internal/shared/events"
)

type outboxRow struct {
	Message     ports.OutboxMessage
	Published   bool
	PublishedAt *time.Time
}

// Store is an in-memory Repository used by tests and the in-memory
// module. InTransaction snapshots state and restores it on error, so
// rollback semantics match the postgres adapter.
type Store struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	stakeholders map[string]entities.Stakeholder
	endorsements map[string]entities.Endorsement
	campaigns    map[string]ports.CampaignRef
	outbox       []outboxRow

	nowFunc func() time.Time
	idSeq   atomic.Int64
}

func NewStore() *Store {
	return &Store{
		stakeholders: make(map[string]entities.Stakeholder),
		endorsements: make(map[string]entities.Endorsement),
		campaigns:    make(map[string]ports.CampaignRef),
	}
}

// SetNow pins the store clock for tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = func() time.Time { return now.UTC() }
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return fmt.Sprintf("id-%06d", s.idSeq.Add(1)), nil
}

func (s *Store) NewToken(_ context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// SeedCampaign registers a campaign projection row.
func (s *Store) SeedCampaign(ref ports.CampaignRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[ref.CampaignID] = ref
}

// InTransaction serializes writers and restores the pre-transaction
// snapshot on error, so rollback never erases a concurrent commit.
func (s *Store) InTransaction(_ context.Context, fn func(ports.Repository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	err := fn(s)
	if err != nil {
		s.mu.Lock()
		s.restoreLocked(snapshot)
		s.mu.Unlock()
	}
	return err
}

type storeSnapshot struct {
	stakeholders map[string]entities.Stakeholder
	endorsements map[string]entities.Endorsement
	outbox       []outboxRow
}

func (s *Store) snapshotLocked() storeSnapshot {
	snap := storeSnapshot{
		stakeholders: make(map[string]entities.Stakeholder, len(s.stakeholders)),
		endorsements: make(map[string]entities.Endorsement, len(s.endorsements)),
		outbox:       append([]outboxRow(nil), s.outbox...),
	}
	for id, item := range s.stakeholders {
		snap.stakeholders[id] = item
	}
	for id, item := range s.endorsements {
		snap.endorsements[id] = item
	}
	return snap
}

func (s *Store) restoreLocked(snap storeSnapshot) {
	s.stakeholders = snap.stakeholders
	s.endorsements = snap.endorsements
	s.outbox = snap.outbox
}

func (s *Store) GetStakeholder(_ context.Context, stakeholderID string) (entities.Stakeholder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.stakeholders[strings.TrimSpace(stakeholderID)]
	if !exists {
		return entities.Stakeholder{}, domainerrors.ErrStakeholderNotFound
	}
	return item, nil
}

func (s *Store) GetStakeholderByEmail(_ context.Context, email string) (entities.Stakeholder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := entities.NormalizeEmail(email)
	for _, item := range s.stakeholders {
		if entities.NormalizeEmail(item.Email) == normalized {
			return item, true, nil
		}
	}
	return entities.Stakeholder{}, false, nil
}

func (s *Store) CreateStakeholder(_ context.Context, stakeholder entities.Stakeholder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := entities.NormalizeEmail(stakeholder.Email)
	for _, item := range s.stakeholders {
		if entities.NormalizeEmail(item.Email) == normalized {
			return domainerrors.ErrStakeholderExists
		}
	}
	if _, exists := s.stakeholders[stakeholder.StakeholderID]; exists {
		return domainerrors.ErrStakeholderExists
	}
	s.stakeholders[stakeholder.StakeholderID] = stakeholder
	return nil
}

func (s *Store) GetEndorsement(_ context.Context, endorsementID string) (entities.Endorsement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.endorsements[strings.TrimSpace(endorsementID)]
	if !exists {
		return entities.Endorsement{}, domainerrors.ErrEndorsementNotFound
	}
	return item, nil
}

func (s *Store) GetEndorsementByPair(_ context.Context, stakeholderID, campaignID string) (entities.Endorsement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.endorsements {
		if item.StakeholderID == strings.TrimSpace(stakeholderID) && item.CampaignID == strings.TrimSpace(campaignID) {
			return item, true, nil
		}
	}
	return entities.Endorsement{}, false, nil
}

func (s *Store) GetEndorsementByToken(_ context.Context, token string) (entities.Endorsement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return entities.Endorsement{}, domainerrors.ErrTokenNotFound
	}
	for _, item := range s.endorsements {
		if item.VerificationToken == trimmed {
			return item, nil
		}
	}
	return entities.Endorsement{}, domainerrors.ErrTokenNotFound
}

func (s *Store) CreateEndorsement(_ context.Context, endorsement entities.Endorsement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.endorsements[endorsement.EndorsementID]; exists {
		return domainerrors.ErrEndorsementExists
	}
	for _, item := range s.endorsements {
		if item.StakeholderID == endorsement.StakeholderID && item.CampaignID == endorsement.CampaignID {
			return domainerrors.ErrEndorsementExists
		}
	}
	s.endorsements[endorsement.EndorsementID] = endorsement
	return nil
}

func (s *Store) UpdateEndorsement(_ context.Context, endorsement entities.Endorsement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.endorsements[endorsement.EndorsementID]; !exists {
		return domainerrors.ErrEndorsementNotFound
	}
	s.endorsements[endorsement.EndorsementID] = endorsement
	return nil
}

func (s *Store) ListForReview(_ context.Context) ([]entities.Endorsement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.Endorsement, 0)
	for _, item := range s.endorsements {
		if item.Status == entities.EndorsementStatusPending || item.Status == entities.EndorsementStatusVerified {
			items = append(items, item)
		}
	}
	sortByCreatedAsc(items)
	return items, nil
}

func (s *Store) ListByCampaign(_ context.Context, campaignID string) ([]entities.PublicEndorsement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(campaignID)
	matched := make([]entities.Endorsement, 0)
	for _, item := range s.endorsements {
		if item.CampaignID == trimmed {
			matched = append(matched, item)
		}
	}
	sortByCreatedDesc(matched)

	items := make([]entities.PublicEndorsement, 0, len(matched))
	for _, item := range matched {
		stakeholder, exists := s.stakeholders[item.StakeholderID]
		if !exists {
			return nil, domainerrors.ErrStakeholderNotFound
		}
		items = append(items, entities.PublicEndorsement{
			Endorsement: item,
			Stakeholder: stakeholder,
		})
	}
	return items, nil
}

func (s *Store) GetCampaignRef(_ context.Context, campaignID string) (ports.CampaignRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, exists := s.campaigns[strings.TrimSpace(campaignID)]
	if !exists {
		return ports.CampaignRef{}, domainerrors.ErrCampaignNotFound
	}
	return ref, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, outboxRow{
		Message: ports.OutboxMessage{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: envelope.OccurredAtUTC.UTC(),
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Published {
			continue
		}
		items = append(items, row.Message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].Message.OutboxID == outboxID {
			stamp := publishedAt.UTC()
			s.outbox[i].Published = true
			s.outbox[i].PublishedAt = &stamp
			return nil
		}
	}
	return domainerrors.ErrEndorsementNotFound
}

func sortByCreatedAsc(items []entities.Endorsement) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func sortByCreatedDesc(items []entities.Endorsement) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
