package repository

import (
	"context"
	"errors"
	"time"

	"github.com/anonstay/service-booking/internal/domain"
	bookingDomain "github.com/anonstay/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// BookingModel is the GORM persistence model for the bookings table.
type BookingModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	HotelID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	RoomID              uuid.UUID  `gorm:"type:uuid;not null;index:idx_room_overlap,priority:1"`
	CheckIn             time.Time  `gorm:"type:timestamptz;not null;index:idx_room_overlap,priority:3;index:idx_sweep,priority:1"`
	CheckOut            time.Time  `gorm:"type:timestamptz;not null;index:idx_room_overlap,priority:4"`
	Persons             int        `gorm:"not null"`
	Status              string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_room_overlap,priority:2;index:idx_sweep,priority:2"`
	TotalPrice          float64    `gorm:"not null"`
	OriginalPrice       float64    `gorm:"not null"`
	PaymentMethod       string     `gorm:"type:varchar(20);not null"`
	IsPaid              bool       `gorm:"not null;default:false"`
	PaymentReference    string     `gorm:"type:varchar(255);index"`
	LoyaltyPointsUsed   int        `gorm:"not null;default:0"`
	DiscountApplied     float64    `gorm:"not null;default:0"`
	LoyaltyPointAwarded bool       `gorm:"not null;default:false"`
	IsLocked            bool       `gorm:"not null;default:false"`
	LockedAt            *time.Time `gorm:"type:timestamptz"`
	CancelledAt         *time.Time `gorm:"type:timestamptz"`
	CancellationReason  string     `gorm:"type:text"`
	CheckedInAt         *time.Time `gorm:"type:timestamptz"`
	NoShowMarkedAt      *time.Time `gorm:"type:timestamptz"`
	ExpiredAt           *time.Time `gorm:"type:timestamptz"`
	AutoConfirmedAt     *time.Time `gorm:"type:timestamptz"`
	RefundInitiated     bool       `gorm:"not null;default:false"`
	RefundAmount        float64    `gorm:"not null;default:0"`
	RefundReference     string     `gorm:"type:varchar(255)"`
	RefundDate          *time.Time `gorm:"type:timestamptz"`
	RefundStatus        string     `gorm:"type:varchar(20)"`
	RefundFailed        bool       `gorm:"not null;default:false"`
	RefundFailReason    string     `gorm:"type:text"`
	Version             int64      `gorm:"not null;default:1"`
	CreatedAt           time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt           time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string {
	return "bookings"
}

// BookingRepositoryImpl is the GORM-based implementation of booking.Repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// FindByID retrieves a booking by its unique ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, err
	}
	return toDomainBooking(&model), nil
}

// FindByPaymentReference retrieves a booking by its gateway correlation key.
func (r *BookingRepositoryImpl) FindByPaymentReference(ctx context.Context, reference string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("payment_reference = ?", reference).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", reference)
		}
		return nil, err
	}
	return toDomainBooking(&model), nil
}

// CountOverlapping counts non-cancelled bookings whose [check_in, check_out)
// interval intersects the given one. Half-open ranges make back-to-back stays
// (checkout day == next check-in day) legal.
func (r *BookingRepositoryImpl) CountOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (int64, error) {
	var cnt int64
	q := `
SELECT COUNT(1)
FROM bookings
WHERE room_id = ?
  AND status <> 'cancelled'
  AND tstzrange(check_in, check_out, '[)') && tstzrange(?, ?, '[)')
`
	if err := r.db.WithContext(ctx).Raw(q, roomID, checkIn, checkOut).Scan(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// Reserve inserts a pending booking only if no overlapping reservation exists.
// The check and the insert run inside one transaction under a per-room advisory
// lock, so two concurrent requests for the same room serialize here; the
// exclusion constraint on the table is the backstop should the lock ever be
// bypassed. Either failure mode surfaces as ErrRoomUnavailable.
func (r *BookingRepositoryImpl) Reserve(ctx context.Context, b *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, b.RoomID().String()).Error; err != nil {
			return err
		}

		var cnt int64
		q := `
SELECT COUNT(1)
FROM bookings
WHERE room_id = ?
  AND status <> 'cancelled'
  AND tstzrange(check_in, check_out, '[)') && tstzrange(?, ?, '[)')
`
		if err := tx.Raw(q, b.RoomID(), b.CheckIn(), b.CheckOut()).Scan(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return domain.ErrRoomUnavailable
		}

		if err := tx.Create(toBookingModel(b)).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
				return domain.ErrRoomUnavailable
			}
			return err
		}
		return nil
	})
}

// Update persists changes to an existing booking with optimistic locking.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	previousVersion := b.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Select("*").
		Omit("created_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// TryMarkLoyaltyAwarded flips the award-once flag in a single conditional
// statement. The rows-affected count is the race arbiter: exactly one caller
// across the verify, owner-confirm, check-in and sweep paths sees true.
func (r *BookingRepositoryImpl) TryMarkLoyaltyAwarded(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND loyalty_point_awarded = false", id).
		Update("loyalty_point_awarded", true)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RevertLoyaltyAwarded undoes a won flag flip whose point credit failed.
func (r *BookingRepositoryImpl) RevertLoyaltyAwarded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND loyalty_point_awarded = true", id).
		Update("loyalty_point_awarded", false).Error
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

// ListByHotels returns bookings across the given hotels, filtered, newest first.
func (r *BookingRepositoryImpl) ListByHotels(ctx context.Context, hotelIDs []uuid.UUID, filter bookingDomain.SearchFilter) ([]*bookingDomain.Booking, error) {
	q := r.db.WithContext(ctx).Where("hotel_id IN ?", hotelIDs)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.PaymentMethod != "" {
		q = q.Where("payment_method = ?", string(filter.PaymentMethod))
	}
	if filter.IsPaid != nil {
		q = q.Where("is_paid = ?", *filter.IsPaid)
	}

	var models []BookingModel
	if err := q.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

// FindDueAutoConfirm returns paid pending bookings checking in today (UTC day of now).
func (r *BookingRepositoryImpl) FindDueAutoConfirm(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND is_paid = true AND check_in >= ? AND check_in < ?",
			string(bookingDomain.StatusPending), dayStart, dayEnd).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

// FindDueNoShow returns confirmed, paid, never-checked-in bookings past the cutoff.
func (r *BookingRepositoryImpl) FindDueNoShow(ctx context.Context, before time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND is_paid = true AND checked_in_at IS NULL AND check_in < ?",
			string(bookingDomain.StatusConfirmed), before).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

// FindDueLock returns confirmed or checked-in bookings past the lock cutoff, not yet locked.
func (r *BookingRepositoryImpl) FindDueLock(ctx context.Context, before time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND is_locked = false AND check_in < ?",
			[]string{string(bookingDomain.StatusConfirmed), string(bookingDomain.StatusCheckedIn)}, before).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

// FindDueExpire returns unpaid pending bookings whose check-in has passed.
func (r *BookingRepositoryImpl) FindDueExpire(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND is_paid = false AND check_in < ?",
			string(bookingDomain.StatusPending), now).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func toDomainBookings(models []BookingModel) []*bookingDomain.Booking {
	out := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		out[i] = toDomainBooking(&models[i])
	}
	return out
}

// toDomainBooking maps a BookingModel to the domain Booking aggregate.
func toDomainBooking(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		m.ID, m.UserID, m.HotelID, m.RoomID,
		m.CheckIn, m.CheckOut,
		m.Persons,
		bookingDomain.Status(m.Status),
		m.TotalPrice, m.OriginalPrice,
		bookingDomain.PaymentMethod(m.PaymentMethod),
		m.IsPaid,
		m.PaymentReference,
		m.LoyaltyPointsUsed,
		m.DiscountApplied,
		m.LoyaltyPointAwarded,
		m.IsLocked,
		m.LockedAt,
		m.CancelledAt,
		m.CancellationReason,
		m.CheckedInAt, m.NoShowMarkedAt, m.ExpiredAt, m.AutoConfirmedAt,
		m.RefundInitiated,
		m.RefundAmount,
		m.RefundReference,
		m.RefundDate,
		bookingDomain.RefundStatus(m.RefundStatus),
		m.RefundFailed,
		m.RefundFailReason,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

// toBookingModel maps a domain Booking aggregate to a BookingModel.
func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                  b.ID(),
		UserID:              b.UserID(),
		HotelID:             b.HotelID(),
		RoomID:              b.RoomID(),
		CheckIn:             b.CheckIn(),
		CheckOut:            b.CheckOut(),
		Persons:             b.Persons(),
		Status:              string(b.Status()),
		TotalPrice:          b.TotalPrice(),
		OriginalPrice:       b.OriginalPrice(),
		PaymentMethod:       string(b.PaymentMethod()),
		IsPaid:              b.IsPaid(),
		PaymentReference:    b.PaymentReference(),
		LoyaltyPointsUsed:   b.LoyaltyPointsUsed(),
		DiscountApplied:     b.DiscountApplied(),
		LoyaltyPointAwarded: b.LoyaltyPointAwarded(),
		IsLocked:            b.IsLocked(),
		LockedAt:            b.LockedAt(),
		CancelledAt:         b.CancelledAt(),
		CancellationReason:  b.CancellationReason(),
		CheckedInAt:         b.CheckedInAt(),
		NoShowMarkedAt:      b.NoShowMarkedAt(),
		ExpiredAt:           b.ExpiredAt(),
		AutoConfirmedAt:     b.AutoConfirmedAt(),
		RefundInitiated:     b.RefundInitiated(),
		RefundAmount:        b.RefundAmount(),
		RefundReference:     b.RefundReference(),
		RefundDate:          b.RefundDate(),
		RefundStatus:        string(b.RefundStatus()),
		RefundFailed:        b.RefundFailed(),
		RefundFailReason:    b.RefundFailReason(),
		Version:             b.Version(),
		CreatedAt:           b.CreatedAt(),
		UpdatedAt:           b.UpdatedAt(),
	}
}
