package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"soapbox/contexts/advocacy/campaign-service/domain/entities"
	domainerrors "soapbox/contexts/advocacy/campaign-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpsertCampaign(ctx context.Context, campaign entities.Campaign) error {
	if strings.TrimSpace(campaign.CampaignID) == "" {
		return domainerrors.ErrInvalidCampaign
	}
	row := campaignModel{
		CampaignID:        strings.TrimSpace(campaign.CampaignID),
		Title:             strings.TrimSpace(campaign.Title),
		Slug:              strings.TrimSpace(campaign.Slug),
		AllowEndorsements: campaign.AllowEndorsements,
		CreatedAt:         campaign.CreatedAt.UTC(),
		UpdatedAt:         campaign.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "campaign_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "slug", "allow_endorsements", "updated_at",
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) SetAllowEndorsements(ctx context.Context, campaignID string, allow bool) error {
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Updates(map[string]any{
			"allow_endorsements": allow,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

type campaignModel struct {
	CampaignID        string    `gorm:"column:campaign_id;primaryKey"`
	Title             string    `gorm:"column:title"`
	Slug              string    `gorm:"column:slug"`
	AllowEndorsements bool      `gorm:"column:allow_endorsements"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

func (m campaignModel) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:        m.CampaignID,
		Title:             m.Title,
		Slug:              m.Slug,
		AllowEndorsements: m.AllowEndorsements,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}
