package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taller-service/internal/domain/fleet"
)

var ErrNotFound = errors.New("record not found")

type FleetRepository struct {
	db *gorm.DB
}

func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

func (VehicleKm) TableName() string {
	return "daily_vehicle_km"
}

func (LegalStatus) TableName() string {
	return "fleet_legal_status"
}

func (InterventionType) TableName() string {
	return "intervention_types"
}

func (MaintenanceLog) TableName() string {
	return "maintenance_logs"
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}

// VehicleKm mirrors daily_vehicle_km, owned by the route app. Never written
// from this service.
type VehicleKm struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Plate      string    `gorm:"not null;uniqueIndex"`
	CurrentKm  int       `gorm:"not null"`
	LastUpdate time.Time `gorm:"not null"`
}

type LegalStatus struct {
	Plate           string `gorm:"primaryKey"`
	NextItvDate     *string
	NextTachoDate   *string
	NextAtpDate     *string
	NextOilChangeKm *int
	UpdatedAt       time.Time
}

type InterventionType struct {
	ID        int    `gorm:"primaryKey"`
	Category  string `gorm:"not null"`
	Name      string `gorm:"not null"`
	IsDefault bool
}

type MaintenanceLog struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Plate              string    `gorm:"not null"`
	UserID             string    `gorm:"not null"`
	KmAtService        int       `gorm:"not null"`
	Category           string    `gorm:"not null"`
	InterventionTypeID *int
	Description        string
	AttachmentURL      *string
	TirePositions      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt          time.Time
}

type NotificationLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Plate      string    `gorm:"not null"`
	AlertType  string    `gorm:"not null"`
	ExpiryDate string    `gorm:"not null"`
	CreatedAt  time.Time
}

type DeviceToken struct {
	Token     string `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (r *FleetRepository) ListVehicles(ctx context.Context) ([]fleet.PlateOption, error) {
	var rows []VehicleKm
	err := r.db.WithContext(ctx).Order("plate ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	options := make([]fleet.PlateOption, 0, len(rows))
	for _, row := range rows {
		options = append(options, fleet.PlateOption{Plate: row.Plate, CurrentKm: row.CurrentKm})
	}
	return options, nil
}

func (r *FleetRepository) GetVehicleKm(ctx context.Context, plate string) (*fleet.VehicleKm, error) {
	var row VehicleKm
	err := r.db.WithContext(ctx).Where("plate = ?", plate).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle km: %w", err)
	}
	return &fleet.VehicleKm{Plate: row.Plate, CurrentKm: row.CurrentKm, LastUpdate: row.LastUpdate}, nil
}

func (r *FleetRepository) GetLegalStatus(ctx context.Context, plate string) (*fleet.LegalStatus, error) {
	var row LegalStatus
	err := r.db.WithContext(ctx).Where("plate = ?", plate).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get legal status: %w", err)
	}
	return legalStatusToDomain(row), nil
}

func (r *FleetRepository) ListLegalStatuses(ctx context.Context) ([]fleet.LegalStatus, error) {
	var rows []LegalStatus
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list legal statuses: %w", err)
	}
	statuses := make([]fleet.LegalStatus, 0, len(rows))
	for _, row := range rows {
		statuses = append(statuses, *legalStatusToDomain(row))
	}
	return statuses, nil
}

// UpsertLegalDate sets one of the expiry date columns, creating the row when
// the vehicle has no legal record yet.
func (r *FleetRepository) UpsertLegalDate(ctx context.Context, plate, column, value string) error {
	switch column {
	case "next_itv_date", "next_tacho_date", "next_atp_date":
	default:
		return fmt.Errorf("unsupported legal date column %q", column)
	}

	err := r.db.WithContext(ctx).
		Model(&LegalStatus{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plate"}},
			DoUpdates: clause.Assignments(map[string]interface{}{column: value, "updated_at": time.Now()}),
		}).
		Create(map[string]interface{}{
			"plate":      plate,
			column:       value,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("upsert legal date: %w", err)
	}
	return nil
}

func (r *FleetRepository) UpsertNextOilChangeKm(ctx context.Context, plate string, nextKm int) error {
	err := r.db.WithContext(ctx).
		Model(&LegalStatus{}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plate"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"next_oil_change_km": nextKm, "updated_at": time.Now()}),
		}).
		Create(&LegalStatus{Plate: plate, NextOilChangeKm: &nextKm, UpdatedAt: time.Now()}).Error
	if err != nil {
		return fmt.Errorf("upsert next oil change km: %w", err)
	}
	return nil
}

// GetOrCreateInterventionType resolves a type name within a category,
// creating a non-default entry on first use. Lookup is case-insensitive so
// "cambio de aceite" and "Cambio de aceite" stay one catalog entry.
func (r *FleetRepository) GetOrCreateInterventionType(ctx context.Context, category fleet.Category, name string) (int, error) {
	var row InterventionType
	err := r.db.WithContext(ctx).
		Where("category = ? AND lower(name) = lower(?)", string(category), name).
		First(&row).Error
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("find intervention type: %w", err)
	}

	row = InterventionType{Category: string(category), Name: strings.TrimSpace(name)}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Concurrent first use of the same name: fall back to the winner.
		var existing InterventionType
		retryErr := r.db.WithContext(ctx).
			Where("category = ? AND lower(name) = lower(?)", string(category), name).
			First(&existing).Error
		if retryErr != nil {
			return 0, fmt.Errorf("create intervention type: %w", err)
		}
		return existing.ID, nil
	}
	return row.ID, nil
}

func (r *FleetRepository) ListInterventionTypes(ctx context.Context, category fleet.Category) ([]fleet.InterventionType, error) {
	var rows []InterventionType
	err := r.db.WithContext(ctx).
		Where("category = ?", string(category)).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list intervention types: %w", err)
	}

	types := make([]fleet.InterventionType, 0, len(rows))
	for _, row := range rows {
		types = append(types, fleet.InterventionType{
			ID:        row.ID,
			Category:  fleet.Category(row.Category),
			Name:      row.Name,
			IsDefault: row.IsDefault,
		})
	}
	return types, nil
}

func (r *FleetRepository) CreateMaintenanceLog(ctx context.Context, log *fleet.MaintenanceLog) error {
	row, err := maintenanceLogFromDomain(log)
	if err != nil {
		return err
	}
	row.ID = uuid.New()
	row.CreatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create maintenance log: %w", err)
	}

	log.ID = row.ID
	log.CreatedAt = row.CreatedAt
	return nil
}

// UpdateMaintenanceLog edits an entry in place. Entries are never deleted.
func (r *FleetRepository) UpdateMaintenanceLog(ctx context.Context, log *fleet.MaintenanceLog) error {
	row, err := maintenanceLogFromDomain(log)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&MaintenanceLog{}).
		Where("id = ?", log.ID).
		Updates(map[string]interface{}{
			"plate":                row.Plate,
			"km_at_service":        row.KmAtService,
			"category":             row.Category,
			"intervention_type_id": row.InterventionTypeID,
			"description":          row.Description,
			"attachment_url":       row.AttachmentURL,
			"tire_positions":       row.TirePositions,
		})
	if result.Error != nil {
		return fmt.Errorf("update maintenance log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FleetRepository) ListMaintenanceLogs(ctx context.Context, plate string, limit int) ([]fleet.MaintenanceLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var rows []MaintenanceLog
	err := r.db.WithContext(ctx).
		Where("plate = ?", plate).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list maintenance logs: %w", err)
	}

	typeNames, err := r.interventionTypeNames(ctx, rows)
	if err != nil {
		return nil, err
	}

	logs := make([]fleet.MaintenanceLog, 0, len(rows))
	for _, row := range rows {
		entry, err := maintenanceLogToDomain(row)
		if err != nil {
			return nil, err
		}
		if row.InterventionTypeID != nil {
			entry.InterventionName = typeNames[*row.InterventionTypeID]
		}
		logs = append(logs, *entry)
	}
	return logs, nil
}

func (r *FleetRepository) interventionTypeNames(ctx context.Context, rows []MaintenanceLog) (map[int]string, error) {
	ids := make([]int, 0, len(rows))
	seen := make(map[int]bool)
	for _, row := range rows {
		if row.InterventionTypeID != nil && !seen[*row.InterventionTypeID] {
			seen[*row.InterventionTypeID] = true
			ids = append(ids, *row.InterventionTypeID)
		}
	}
	if len(ids) == 0 {
		return map[int]string{}, nil
	}

	var types []InterventionType
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&types).Error; err != nil {
		return nil, fmt.Errorf("load intervention type names: %w", err)
	}

	names := make(map[int]string, len(types))
	for _, t := range types {
		names[t.ID] = t.Name
	}
	return names, nil
}

// FindNotificationLogs loads every dedup entry matching any of the given
// expiry dates, so the scanner can do set-membership checks in memory instead
// of one existence query per candidate.
func (r *FleetRepository) FindNotificationLogs(ctx context.Context, expiryDates []string) ([]fleet.AlertCandidate, error) {
	if len(expiryDates) == 0 {
		return nil, nil
	}

	var rows []NotificationLog
	err := r.db.WithContext(ctx).
		Where("expiry_date IN ?", expiryDates).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find notification logs: %w", err)
	}

	entries := make([]fleet.AlertCandidate, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fleet.AlertCandidate{
			Plate:      row.Plate,
			Type:       fleet.AlertType(row.AlertType),
			ExpiryDate: row.ExpiryDate,
		})
	}
	return entries, nil
}

func (r *FleetRepository) CreateNotificationLog(ctx context.Context, candidate fleet.AlertCandidate) error {
	row := NotificationLog{
		ID:         uuid.New(),
		Plate:      candidate.Plate,
		AlertType:  string(candidate.Type),
		ExpiryDate: candidate.ExpiryDate,
		CreatedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create notification log: %w", err)
	}
	return nil
}

func (r *FleetRepository) RegisterDeviceToken(ctx context.Context, token string) error {
	row := DeviceToken{Token: token, CreatedAt: time.Now()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("register device token: %w", err)
	}
	return nil
}

func (r *FleetRepository) ListDeviceTokens(ctx context.Context) ([]string, error) {
	var rows []DeviceToken
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.Token)
	}
	return tokens, nil
}

func legalStatusToDomain(row LegalStatus) *fleet.LegalStatus {
	return &fleet.LegalStatus{
		Plate:           row.Plate,
		NextITVDate:     row.NextItvDate,
		NextTachoDate:   row.NextTachoDate,
		NextATPDate:     row.NextAtpDate,
		NextOilChangeKm: row.NextOilChangeKm,
		UpdatedAt:       row.UpdatedAt,
	}
}

func maintenanceLogFromDomain(log *fleet.MaintenanceLog) (*MaintenanceLog, error) {
	row := &MaintenanceLog{
		ID:                 log.ID,
		Plate:              log.Plate,
		UserID:             log.UserID,
		KmAtService:        log.KmAtService,
		Category:           string(log.Category),
		InterventionTypeID: log.InterventionTypeID,
		Description:        log.Description,
		AttachmentURL:      log.AttachmentURL,
		CreatedAt:          log.CreatedAt,
	}
	if len(log.TirePositions) > 0 {
		raw, err := json.Marshal(log.TirePositions)
		if err != nil {
			return nil, fmt.Errorf("marshal tire positions: %w", err)
		}
		row.TirePositions = datatypes.JSON(raw)
	}
	return row, nil
}

func maintenanceLogToDomain(row MaintenanceLog) (*fleet.MaintenanceLog, error) {
	entry := &fleet.MaintenanceLog{
		ID:                 row.ID,
		Plate:              row.Plate,
		UserID:             row.UserID,
		KmAtService:        row.KmAtService,
		Category:           fleet.Category(row.Category),
		InterventionTypeID: row.InterventionTypeID,
		Description:        row.Description,
		AttachmentURL:      row.AttachmentURL,
		CreatedAt:          row.CreatedAt,
	}
	if len(row.TirePositions) > 0 {
		if err := json.Unmarshal(row.TirePositions, &entry.TirePositions); err != nil {
			return nil, fmt.Errorf("unmarshal tire positions: %w", err)
		}
	}
	return entry, nil
}
