package fleet

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryMechanical Category = "MECANICA"
	CategoryTires      Category = "NEUMATICOS"
	CategoryLegal      Category = "LEGAL"
	CategoryFrigo      Category = "FRIGO"
	CategoryAccident   Category = "ACCIDENTE"
	CategoryWashGrease Category = "LAVADO_ENGRASE"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMechanical, CategoryTires, CategoryLegal,
		CategoryFrigo, CategoryAccident, CategoryWashGrease:
		return true
	}
	return false
}

type TirePosition string

const (
	TireFrontLeft      TirePosition = "front_left"
	TireFrontRight     TirePosition = "front_right"
	TireRearLeftInner  TirePosition = "rear_left_inner"
	TireRearLeftOuter  TirePosition = "rear_left_outer"
	TireRearRightInner TirePosition = "rear_right_inner"
	TireRearRightOuter TirePosition = "rear_right_outer"
)

type AlertType string

const (
	AlertITV   AlertType = "ITV"
	AlertTacho AlertType = "TACHO"
	AlertATP   AlertType = "ATP"
)

// LegalStatus tracks document expirations for one vehicle. Date fields are
// raw strings as stored: the legacy sheet sync writes DD/MM/YYYY while newer
// writes use ISO, so interpretation belongs to the date normalizer.
type LegalStatus struct {
	Plate           string    `json:"plate"`
	NextITVDate     *string   `json:"next_itv_date,omitempty"`
	NextTachoDate   *string   `json:"next_tacho_date,omitempty"`
	NextATPDate     *string   `json:"next_atp_date,omitempty"`
	NextOilChangeKm *int      `json:"next_oil_change_km,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VehicleKm is owned by the route app. Read only.
type VehicleKm struct {
	Plate      string    `json:"plate"`
	CurrentKm  int       `json:"current_km"`
	LastUpdate time.Time `json:"last_update"`
}

type MaintenanceLog struct {
	ID                 uuid.UUID      `json:"id"`
	Plate              string         `json:"plate"`
	UserID             string         `json:"user_id"`
	KmAtService        int            `json:"km_at_service"`
	Category           Category       `json:"category"`
	InterventionTypeID *int           `json:"intervention_type_id,omitempty"`
	InterventionName   string         `json:"intervention_name,omitempty"`
	Description        string         `json:"description"`
	AttachmentURL      *string        `json:"attachment_url,omitempty"`
	TirePositions      []TirePosition `json:"tire_positions,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

type InterventionType struct {
	ID        int      `json:"id"`
	Category  Category `json:"category"`
	Name      string   `json:"name"`
	IsDefault bool     `json:"is_default"`
}

type PlateOption struct {
	Plate     string `json:"plate"`
	CurrentKm int    `json:"current_km"`
}

// VehicleStatus is the unified dashboard view for one vehicle.
type VehicleStatus struct {
	Plate        string       `json:"plate"`
	CurrentKm    int          `json:"current_km"`
	LastKmUpdate time.Time    `json:"last_km_update"`
	Legal        *LegalStatus `json:"legal_status,omitempty"`
}

type AlertCandidate struct {
	Plate      string    `json:"plate"`
	Type       AlertType `json:"type"`
	ExpiryDate string    `json:"expiry_date"`
}
