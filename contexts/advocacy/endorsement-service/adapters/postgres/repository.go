package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"soapbox/contexts/advocacy/endorsement-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/endorsement-service/domain/errors"
	"soapbox/contexts/advocacy/endorsement-service/ports"
	"soapbox/internal/shared/events"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// InTransaction binds a repository to one database transaction so the
// stakeholder-resolve and endorsement-write steps commit or roll back
// together.
func (r *Repository) InTransaction(ctx context.Context, fn func(ports.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) GetStakeholder(ctx context.Context, stakeholderID string) (entities.Stakeholder, error) {
	var row stakeholderModel
	err := r.db.WithContext(ctx).
		Where("stakeholder_id = ?", strings.TrimSpace(stakeholderID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Stakeholder{}, domainerrors.ErrStakeholderNotFound
		}
		return entities.Stakeholder{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetStakeholderByEmail(ctx context.Context, email string) (entities.Stakeholder, bool, error) {
	var row stakeholderModel
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", entities.NormalizeEmail(email)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Stakeholder{}, false, nil
		}
		return entities.Stakeholder{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CreateStakeholder(ctx context.Context, stakeholder entities.Stakeholder) error {
	row := stakeholderModelFromEntity(stakeholder)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrStakeholderExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetEndorsement(ctx context.Context, endorsementID string) (entities.Endorsement, error) {
	var row endorsementModel
	err := r.db.WithContext(ctx).
		Where("endorsement_id = ?", strings.TrimSpace(endorsementID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Endorsement{}, domainerrors.ErrEndorsementNotFound
		}
		return entities.Endorsement{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetEndorsementByPair(ctx context.Context, stakeholderID, campaignID string) (entities.Endorsement, bool, error) {
	var row endorsementModel
	err := r.db.WithContext(ctx).
		Where("stakeholder_id = ?", strings.TrimSpace(stakeholderID)).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Endorsement{}, false, nil
		}
		return entities.Endorsement{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetEndorsementByToken(ctx context.Context, token string) (entities.Endorsement, error) {
	var row endorsementModel
	err := r.db.WithContext(ctx).
		Where("verification_token = ?", strings.TrimSpace(token)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Endorsement{}, domainerrors.ErrTokenNotFound
		}
		return entities.Endorsement{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateEndorsement(ctx context.Context, endorsement entities.Endorsement) error {
	row := endorsementModelFromEntity(endorsement)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrEndorsementExists
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateEndorsement(ctx context.Context, endorsement entities.Endorsement) error {
	result := r.db.WithContext(ctx).
		Model(&endorsementModel{}).
		Where("endorsement_id = ?", strings.TrimSpace(endorsement.EndorsementID)).
		Updates(endorsementUpdatesFromEntity(endorsement))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEndorsementNotFound
	}
	return nil
}

func (r *Repository) ListForReview(ctx context.Context) ([]entities.Endorsement, error) {
	var rows []endorsementModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entities.EndorsementStatusPending),
			string(entities.EndorsementStatusVerified),
		}).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Endorsement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListByCampaign(ctx context.Context, campaignID string) ([]entities.PublicEndorsement, error) {
	var rows []endorsementModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.PublicEndorsement, 0, len(rows))
	for _, row := range rows {
		stakeholder, err := r.GetStakeholder(ctx, row.StakeholderID)
		if err != nil {
			return nil, err
		}
		items = append(items, entities.PublicEndorsement{
			Endorsement: row.toEntity(),
			Stakeholder: stakeholder,
		})
	}
	return items, nil
}

func (r *Repository) GetCampaignRef(ctx context.Context, campaignID string) (ports.CampaignRef, error) {
	var row campaignRefModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CampaignRef{}, domainerrors.ErrCampaignNotFound
		}
		return ports.CampaignRef{}, err
	}
	return ports.CampaignRef{
		CampaignID:        row.CampaignID,
		Title:             row.Title,
		AllowEndorsements: row.AllowEndorsements,
	}, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:  strings.TrimSpace(envelope.EventID),
		EventType: strings.TrimSpace(envelope.EventType),
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAtUTC.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEndorsementNotFound
	}
	return nil
}

type stakeholderModel struct {
	StakeholderID string    `gorm:"column:stakeholder_id;primaryKey"`
	Name          string    `gorm:"column:name"`
	Organization  string    `gorm:"column:organization"`
	Role          string    `gorm:"column:role"`
	Email         string    `gorm:"column:email"`
	City          string    `gorm:"column:city"`
	Region        string    `gorm:"column:region"`
	PostalCode    string    `gorm:"column:postal_code"`
	Category      string    `gorm:"column:category"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (stakeholderModel) TableName() string {
	return "stakeholders"
}

func stakeholderModelFromEntity(item entities.Stakeholder) stakeholderModel {
	return stakeholderModel{
		StakeholderID: strings.TrimSpace(item.StakeholderID),
		Name:          strings.TrimSpace(item.Name),
		Organization:  strings.TrimSpace(item.Organization),
		Role:          strings.TrimSpace(item.Role),
		Email:         entities.NormalizeEmail(item.Email),
		City:          strings.TrimSpace(item.City),
		Region:        strings.TrimSpace(item.Region),
		PostalCode:    strings.TrimSpace(item.PostalCode),
		Category:      strings.TrimSpace(item.Category),
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func (m stakeholderModel) toEntity() entities.Stakeholder {
	return entities.Stakeholder{
		StakeholderID: m.StakeholderID,
		Name:          m.Name,
		Organization:  m.Organization,
		Role:          m.Role,
		Email:         m.Email,
		City:          m.City,
		Region:        m.Region,
		PostalCode:    m.PostalCode,
		Category:      m.Category,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type endorsementModel struct {
	EndorsementID      string     `gorm:"column:endorsement_id;primaryKey"`
	StakeholderID      string     `gorm:"column:stakeholder_id"`
	CampaignID         string     `gorm:"column:campaign_id"`
	Statement          string     `gorm:"column:statement"`
	PublicDisplay      bool       `gorm:"column:public_display"`
	DisplayPublicly    bool       `gorm:"column:display_publicly"`
	Status             string     `gorm:"column:status"`
	EmailVerified      bool       `gorm:"column:email_verified"`
	VerificationToken  string     `gorm:"column:verification_token"`
	VerificationSentAt *time.Time `gorm:"column:verification_sent_at"`
	VerifiedAt         *time.Time `gorm:"column:verified_at"`
	ReviewedBy         string     `gorm:"column:reviewed_by"`
	ReviewedAt         *time.Time `gorm:"column:reviewed_at"`
	AdminNotes         string     `gorm:"column:admin_notes"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (endorsementModel) TableName() string {
	return "endorsements"
}

func endorsementModelFromEntity(item entities.Endorsement) endorsementModel {
	return endorsementModel{
		EndorsementID:      strings.TrimSpace(item.EndorsementID),
		StakeholderID:      strings.TrimSpace(item.StakeholderID),
		CampaignID:         strings.TrimSpace(item.CampaignID),
		Statement:          item.Statement,
		PublicDisplay:      item.PublicDisplay,
		DisplayPublicly:    item.DisplayPublicly,
		Status:             string(item.Status),
		EmailVerified:      item.EmailVerified,
		VerificationToken:  strings.TrimSpace(item.VerificationToken),
		VerificationSentAt: normalizeOptionalTime(item.VerificationSentAt),
		VerifiedAt:         normalizeOptionalTime(item.VerifiedAt),
		ReviewedBy:         strings.TrimSpace(item.ReviewedBy),
		ReviewedAt:         normalizeOptionalTime(item.ReviewedAt),
		AdminNotes:         item.AdminNotes,
		CreatedAt:          item.CreatedAt.UTC(),
		UpdatedAt:          item.UpdatedAt.UTC(),
	}
}

func endorsementUpdatesFromEntity(item entities.Endorsement) map[string]any {
	row := endorsementModelFromEntity(item)
	return map[string]any{
		"statement":            row.Statement,
		"public_display":       row.PublicDisplay,
		"display_publicly":     row.DisplayPublicly,
		"status":               row.Status,
		"email_verified":       row.EmailVerified,
		"verification_token":   row.VerificationToken,
		"verification_sent_at": row.VerificationSentAt,
		"verified_at":          row.VerifiedAt,
		"reviewed_by":          row.ReviewedBy,
		"reviewed_at":          row.ReviewedAt,
		"admin_notes":          row.AdminNotes,
		"updated_at":           row.UpdatedAt,
	}
}

func (m endorsementModel) toEntity() entities.Endorsement {
	return entities.Endorsement{
		EndorsementID:      m.EndorsementID,
		StakeholderID:      m.StakeholderID,
		CampaignID:         m.CampaignID,
		Statement:          m.Statement,
		PublicDisplay:      m.PublicDisplay,
		DisplayPublicly:    m.DisplayPublicly,
		Status:             entities.EndorsementStatus(m.Status),
		EmailVerified:      m.EmailVerified,
		VerificationToken:  m.VerificationToken,
		VerificationSentAt: normalizeOptionalTime(m.VerificationSentAt),
		VerifiedAt:         normalizeOptionalTime(m.VerifiedAt),
		ReviewedBy:         m.ReviewedBy,
		ReviewedAt:         normalizeOptionalTime(m.ReviewedAt),
		AdminNotes:         m.AdminNotes,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "endorsement_outbox"
}

type campaignRefModel struct {
	CampaignID        string `gorm:"column:campaign_id;primaryKey"`
	Title             string `gorm:"column:title"`
	AllowEndorsements bool   `gorm:"column:allow_endorsements"`
}

func (campaignRefModel) TableName() string {
	return "campaigns"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
