package mysql

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const hotelColumns = `id, name, location, price_per_night, rating, description, total_rooms, available_rooms, last_updated`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

// Row lock held until commit/rollback; serializes ledger writers per hotel.
const lockHotelSQL = getHotelSQL + ` FOR UPDATE`

// Materialization races resolve to whichever insert came first.
const createHotelSQL = `
INSERT INTO hotels
  (id, name, location, price_per_night, rating, description, total_rooms, available_rooms, last_updated)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE id = id
`

// Seeding refreshes descriptive fields only; room counts belong to the ledger.
const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, location, price_per_night, rating, description, total_rooms, available_rooms, last_updated)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name            = VALUES(name),
  location        = VALUES(location),
  price_per_night = VALUES(price_per_night),
  rating          = VALUES(rating),
  description     = COALESCE(VALUES(description), hotels.description),
  last_updated    = VALUES(last_updated)
`

const saveHotelAvailabilitySQL = `UPDATE hotels SET available_rooms = ?, last_updated = ? WHERE id = ?`

const listHotelsSQL = `
SELECT ` + hotelColumns + `
FROM hotels
WHERE (? = '' OR location LIKE CONCAT('%', ?, '%'))
ORDER BY id
LIMIT ?
`

const insertMissSQL = `
INSERT INTO ingest_misses (id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE http_status = VALUES(http_status), reason = VALUES(reason), seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const bookingColumns = `id, user_id, booking_type, hotel_id, car_rental_id, check_in, check_out, room_number, status, created_at`

const getBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

const listBookingsSQL = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
`

const insertBookingSQL = `
INSERT INTO bookings
  (user_id, booking_type, hotel_id, car_rental_id, check_in, check_out, status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

const setBookingRoomSQL = `UPDATE bookings SET room_number = ? WHERE id = ?`

const setBookingStatusSQL = `UPDATE bookings SET status = ? WHERE id = ?`

const insertCarRentalSQL = `
INSERT INTO car_rentals (location, car_type, pickup_date, return_date)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// ROOM LEDGER
// -----------------------------------------------------------------------------

// Half-open: night >= from AND night < to.
const ledgerRangeSQL = `
SELECT hotel_id, night, room_number, is_available, booking_id
FROM room_availability
WHERE hotel_id = ? AND night >= ? AND night < ?
ORDER BY night, room_number
`

// The primary key (hotel_id, night, room_number) rejects a second writer.
const insertNightSQL = `
INSERT INTO room_availability (hotel_id, night, room_number, is_available, booking_id)
VALUES (?, ?, ?, 0, ?)
`

const claimNightSQL = `
UPDATE room_availability
SET is_available = 0, booking_id = ?
WHERE hotel_id = ? AND night = ? AND room_number = ? AND is_available = 1
`

const releaseNightsSQL = `
UPDATE room_availability
SET is_available = 1, booking_id = NULL
WHERE hotel_id = ? AND booking_id = ?
`

const countBookedRoomsSQL = `
SELECT COUNT(DISTINCT room_number)
FROM room_availability
WHERE hotel_id = ? AND is_available = 0
`
