package response

import (
	"time"

	"voltshare/internal/usecase/queries"

	"github.com/google/uuid"
)

type ChargerResponse struct {
	ID         uuid.UUID `json:"id"`
	HostID     uuid.UUID `json:"hostId"`
	Title      string    `json:"title"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Connector  string    `json:"connectorType"`
	MaxPowerKw float64   `json:"maxPowerKw"`
	IsActive   bool      `json:"isActive"`
	AutoAccept bool      `json:"autoAccept"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func FromChargerView(rm *queries.ChargerView) *ChargerResponse {
	return &ChargerResponse{
		ID:         rm.ID,
		HostID:     rm.HostID,
		Title:      rm.Title,
		Latitude:   rm.Latitude,
		Longitude:  rm.Longitude,
		Connector:  rm.Connector,
		MaxPowerKw: rm.MaxPowerKw,
		IsActive:   rm.IsActive,
		AutoAccept: rm.AutoAccept,
		CreatedAt:  rm.CreatedAt,
		UpdatedAt:  rm.UpdatedAt,
	}
}
