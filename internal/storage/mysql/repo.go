package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"travel_companion/internal/domain"
)

const (
	errDuplicateEntry = 1062
	errLockWait       = 1205
	errDeadlock       = 1213
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// valDay renders a DATE parameter; nights are always UTC calendar days.
func valDay(p *time.Time) any {
	if p == nil {
		return nil
	}
	return day(*p)
}

func day(t time.Time) string { return domain.Day(t).Format(domain.DateLayout) }

func isDuplicate(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

// isLockConflict reports whether InnoDB aborted the statement to break a lock
// cycle or a lock wait; the transaction lost a race and can be retried.
func isLockConflict(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && (me.Number == errDeadlock || me.Number == errLockWait)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// reader holds the lookups shared by Repo and txRepo.
type reader struct{ q querier }

type Repo struct {
	reader
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{reader: reader{q: db}, db: db} }

// WithinTx runs fn in one database transaction. fn's error rolls everything back.
func (r *Repo) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) (err error) {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(&txRepo{reader: reader{q: sqlTx}}); err != nil {
		if isLockConflict(err) {
			return fmt.Errorf("%w: %w", domain.ErrRoomConflict, err)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

/********** hotels **********/

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var desc sql.NullString
	if err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Location,
		&h.PricePerNight,
		&h.Rating,
		&desc,
		&h.TotalRooms,
		&h.AvailableRooms,
		&h.LastUpdated,
	); err != nil {
		return domain.Hotel{}, err
	}
	if desc.Valid {
		d := desc.String
		h.Description = &d
	}
	return h, nil
}

func (r reader) getHotel(ctx context.Context, query string, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r reader) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return r.getHotel(ctx, getHotelSQL, id)
}

func hotelArgs(h domain.Hotel) []any {
	return []any{
		h.ID,
		h.Name,
		h.Location,
		h.PricePerNight,
		h.Rating,
		valStr(h.Description),
		h.TotalRooms,
		h.AvailableRooms,
		h.LastUpdated.UTC(),
	}
}

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	_, err := r.db.ExecContext(ctx, upsertHotelSQL, hotelArgs(h)...)
	return err
}

func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	loc := ""
	if q.Location != nil {
		loc = *q.Location
	}
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, loc, loc, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

/********** bookings **********/

func scanBooking(row rowScanner) (domain.Booking, error) {
	var b domain.Booking
	var (
		hotelID, carID      sql.NullInt64
		checkIn, checkOut   sql.NullTime
		room                sql.NullInt64
		bookingType, status string
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&bookingType,
		&hotelID,
		&carID,
		&checkIn,
		&checkOut,
		&room,
		&status,
		&b.CreatedAt,
	); err != nil {
		return domain.Booking{}, err
	}
	b.Type = domain.BookingType(bookingType)
	b.Status = domain.BookingStatus(status)
	if hotelID.Valid {
		id := hotelID.Int64
		b.HotelID = &id
	}
	if carID.Valid {
		id := carID.Int64
		b.CarRentalID = &id
	}
	if checkIn.Valid {
		d := domain.Day(checkIn.Time)
		b.CheckIn = &d
	}
	if checkOut.Valid {
		d := domain.Day(checkOut.Time)
		b.CheckOut = &d
	}
	if room.Valid {
		n := int(room.Int64)
		b.RoomNumber = &n
	}
	return b, nil
}

func (r reader) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx, getBookingSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *Repo) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, listBookingsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

/********** ledger **********/

func (r reader) LedgerRange(ctx context.Context, hotelID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	rows, err := r.q.QueryContext(ctx, ledgerRangeSQL, hotelID, day(from), day(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoomAvailability
	for rows.Next() {
		var ra domain.RoomAvailability
		var bookingID sql.NullInt64
		if err := rows.Scan(&ra.HotelID, &ra.Date, &ra.RoomNumber, &ra.IsAvailable, &bookingID); err != nil {
			return nil, err
		}
		ra.Date = domain.Day(ra.Date)
		if bookingID.Valid {
			id := bookingID.Int64
			ra.BookingID = &id
		}
		out = append(out, ra)
	}
	return out, rows.Err()
}

var _ domain.BookingStore = (*Repo)(nil)
