package repository

import (
	"context"
	"errors"
	"time"

	"github.com/anonstay/service-booking/internal/domain"
	"github.com/anonstay/service-booking/internal/domain/room"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HotelModel is the GORM persistence model for the hotels table.
type HotelModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name    string    `gorm:"type:varchar(255);not null"`
}

func (HotelModel) TableName() string {
	return "hotels"
}

// RoomModel is the GORM persistence model for the rooms table.
type RoomModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	HotelID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	PricePerNight      float64    `gorm:"not null"`
	HasDiscount        bool       `gorm:"not null;default:false"`
	DiscountPercentage float64    `gorm:"not null;default:0"`
	DiscountedPrice    float64    `gorm:"not null;default:0"`
	DiscountStartDate  *time.Time `gorm:"type:timestamptz"`
	DiscountEndDate    *time.Time `gorm:"type:timestamptz"`
}

func (RoomModel) TableName() string {
	return "rooms"
}

// RoomRepositoryImpl is the GORM-based implementation of room.Catalog.
type RoomRepositoryImpl struct {
	db *gorm.DB
}

// NewRoomRepository creates a new GORM-based room catalog.
func NewRoomRepository(db *gorm.DB) *RoomRepositoryImpl {
	return &RoomRepositoryImpl{db: db}
}

// FindSnapshot loads the room and resolves its owning hotel in one join.
func (r *RoomRepositoryImpl) FindSnapshot(ctx context.Context, roomID uuid.UUID) (*room.Snapshot, error) {
	var row struct {
		RoomModel
		OwnerID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Table("rooms").
		Select("rooms.*, hotels.owner_id AS owner_id").
		Joins("JOIN hotels ON hotels.id = rooms.hotel_id").
		Where("rooms.id = ?", roomID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Room", roomID.String())
		}
		return nil, err
	}

	return &room.Snapshot{
		ID:            row.ID,
		HotelID:       row.HotelID,
		OwnerID:       row.OwnerID,
		PricePerNight: row.PricePerNight,
		Discount: room.Discount{
			HasDiscount:     row.HasDiscount,
			Percentage:      row.DiscountPercentage,
			DiscountedPrice: row.DiscountedPrice,
			StartDate:       row.DiscountStartDate,
			EndDate:         row.DiscountEndDate,
		},
	}, nil
}

// HotelIDsByOwner returns the IDs of all hotels owned by the given principal.
func (r *RoomRepositoryImpl) HotelIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&HotelModel{}).
		Where("owner_id = ?", ownerID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
