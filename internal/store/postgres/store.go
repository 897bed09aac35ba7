package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Fery-Iris/web-simdik-sub001/internal/models"
	"github.com/Fery-Iris/web-simdik-sub001/internal/schedule"
	"github.com/Fery-Iris/web-simdik-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const zeroUUID = "00000000-0000-0000-0000-000000000000"

const reservationColumns = `
	reservation_id, queue_number, service_code, citizen_name, phone, national_id,
	purpose, to_char(date, 'YYYY-MM-DD'), time_slot, status, estimated_call_time,
	created_at, updated_at, called_at, completed_at
`

type Store struct {
	pool             *pgxpool.Pool
	slotCapacity     int
	capacityFailOpen bool
	waitPerActive    time.Duration
	estimator        store.WaitEstimator
}

type Options struct {
	SlotCapacity         int
	CapacityFailOpen     bool
	WaitPerActiveMinutes int
	Estimator            store.WaitEstimator
}

func NewStore(pool *pgxpool.Pool, options Options) *Store {
	capacity := options.SlotCapacity
	if capacity <= 0 {
		capacity = 1
	}
	perActive := options.WaitPerActiveMinutes
	if perActive <= 0 {
		perActive = 3
	}
	estimator := options.Estimator
	if estimator == nil {
		estimator = store.FlatEstimator{Lead: 30 * time.Minute}
	}
	return &Store{
		pool:             pool,
		slotCapacity:     capacity,
		capacityFailOpen: options.CapacityFailOpen,
		waitPerActive:    time.Duration(perActive) * time.Minute,
		estimator:        estimator,
	}
}

func (s *Store) CreateReservation(ctx context.Context, input store.CreateReservationInput) (models.Reservation, error) {
	if err := input.Validate(); err != nil {
		return models.Reservation{}, err
	}
	svc, ok := models.ServiceByCode(input.ServiceCode)
	if !ok {
		return models.Reservation{}, store.ErrServiceNotFound
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if schedule.IsPastDate(input.Date, createdAt) {
		return models.Reservation{}, store.ErrPastDate
	}
	if !schedule.IsValidSlot(input.Date, input.TimeSlot) {
		return models.Reservation{}, store.ErrInvalidSlot
	}
	if schedule.IsSlotPassed(input.Date, input.TimeSlot, createdAt) {
		return models.Reservation{}, store.ErrSlotPassed
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Serialize the count-then-insert on the slot and the read-then-increment
	// on the sequence. Both advisory locks are transaction scoped.
	if err = lockKey(ctx, tx, "slot:"+input.Date+"/"+input.TimeSlot); err != nil {
		return models.Reservation{}, err
	}
	if err = lockKey(ctx, tx, "seq:"+svc.Code); err != nil {
		return models.Reservation{}, err
	}

	active, countErr := countActiveInSlot(ctx, tx, input.Date, input.TimeSlot)
	if countErr != nil {
		if !s.capacityFailOpen {
			err = fmt.Errorf("capacity check: %w", countErr)
			return models.Reservation{}, err
		}
		log.Printf("capacity check failed, allowing booking: %v", countErr)
		active = 0
	}
	if active >= s.slotCapacity {
		err = store.ErrSlotFull
		return models.Reservation{}, err
	}

	queueNumber, err := nextQueueNumber(ctx, tx, svc, createdAt)
	if err != nil {
		return models.Reservation{}, err
	}

	depth, err := countActiveForService(ctx, tx, svc.Code)
	if err != nil {
		return models.Reservation{}, err
	}
	estimated := store.FormatCallTime(s.estimator.EstimateCall(createdAt, depth))

	reservation := models.Reservation{
		ReservationID:     uuid.NewString(),
		QueueNumber:       queueNumber,
		ServiceCode:       svc.Code,
		CitizenName:       input.CitizenName,
		Phone:             input.Phone,
		NationalID:        input.NationalID,
		Purpose:           input.Purpose,
		Date:              input.Date,
		TimeSlot:          input.TimeSlot,
		Status:            models.StatusWaiting,
		EstimatedCallTime: estimated,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (
			reservation_id, queue_number, service_code, citizen_name, phone, national_id,
			purpose, date, time_slot, status, estimated_call_time, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::date,$9,$10,$11,$12,$13)
	`, reservation.ReservationID, reservation.QueueNumber, reservation.ServiceCode,
		reservation.CitizenName, reservation.Phone, nullIfEmpty(reservation.NationalID),
		reservation.Purpose, reservation.Date, reservation.TimeSlot, reservation.Status,
		reservation.EstimatedCallTime, reservation.CreatedAt, reservation.UpdatedAt)
	if err != nil {
		return models.Reservation{}, err
	}

	if err = insertOutboxEvent(ctx, tx, "reservation.created", reservation); err != nil {
		return models.Reservation{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (s *Store) GetReservation(ctx context.Context, reservationID string) (models.Reservation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE reservation_id = $1
	`, reservationID)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, store.ErrReservationNotFound
		}
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (s *Store) UpdateReservation(ctx context.Context, reservationID string, input store.UpdateReservationInput) (models.Reservation, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var currentStatus string
	row := tx.QueryRow(ctx, `
		SELECT status
		FROM reservations
		WHERE reservation_id = $1
		FOR UPDATE
	`, reservationID)
	if err = row.Scan(&currentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrReservationNotFound
		}
		return models.Reservation{}, err
	}

	if !store.ValidTransition(currentStatus, input.Status) {
		err = store.ErrInvalidTransition
		return models.Reservation{}, err
	}

	updatedAt := input.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var calledAt, completedAt interface{}
	if input.Status == models.StatusCalled && currentStatus != models.StatusCalled {
		calledAt = updatedAt
	}
	if input.Status == models.StatusCompleted && currentStatus != models.StatusCompleted {
		completedAt = updatedAt
	}

	row = tx.QueryRow(ctx, `
		UPDATE reservations
		SET service_code = $1,
			citizen_name = $2,
			phone = $3,
			national_id = $4,
			purpose = $5,
			date = $6::date,
			time_slot = $7,
			status = $8,
			updated_at = $9,
			called_at = COALESCE($10, called_at),
			completed_at = COALESCE($11, completed_at)
		WHERE reservation_id = $12
		RETURNING `+reservationColumns+`
	`, input.ServiceCode, input.CitizenName, input.Phone, nullIfEmpty(input.NationalID),
		input.Purpose, input.Date, input.TimeSlot, input.Status, updatedAt,
		calledAt, completedAt, reservationID)

	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrReservationNotFound
		}
		return models.Reservation{}, err
	}

	if err = insertOutboxEvent(ctx, tx, eventTypeFor(currentStatus, reservation.Status), reservation); err != nil {
		return models.Reservation{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (s *Store) DeleteReservation(ctx context.Context, reservationID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	row := tx.QueryRow(ctx, `
		DELETE FROM reservations
		WHERE reservation_id = $1
		RETURNING `+reservationColumns+`
	`, reservationID)
	reservation, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrReservationNotFound
		}
		return err
	}

	if err = insertOutboxEvent(ctx, tx, "reservation.deleted", reservation); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListReservations(ctx context.Context, filter store.ListFilter) ([]models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE 1 = 1
	`
	var args []interface{}
	if filter.ServiceCode != "" {
		args = append(args, filter.ServiceCode)
		query += fmt.Sprintf(" AND service_code = $%d", len(args))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		query += fmt.Sprintf(" AND date = $%d::date", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (s *Store) SlotAvailability(ctx context.Context, date string) ([]store.SlotAvailability, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT time_slot, COUNT(*)
		FROM reservations
		WHERE date = $1::date AND status IN ('waiting', 'called')
		GROUP BY time_slot
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make(map[string]int)
	for rows.Next() {
		var slot string
		var count int
		if err := rows.Scan(&slot, &count); err != nil {
			return nil, err
		}
		booked[slot] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var availability []store.SlotAvailability
	for _, slot := range schedule.SlotsForDate(date) {
		availability = append(availability, store.SlotAvailability{
			TimeSlot: slot,
			Booked:   booked[slot],
			Capacity: s.slotCapacity,
		})
	}
	return availability, nil
}

func (s *Store) QueueStatus(ctx context.Context) ([]store.ServiceQueueStatus, error) {
	statuses := make([]store.ServiceQueueStatus, 0, len(models.Services()))
	for _, svc := range models.Services() {
		var active int
		row := s.pool.QueryRow(ctx, `
			SELECT COUNT(*)
			FROM reservations
			WHERE service_code = $1 AND status IN ('waiting', 'called')
		`, svc.Code)
		if err := row.Scan(&active); err != nil {
			return nil, err
		}

		var current string
		row = s.pool.QueryRow(ctx, `
			SELECT queue_number
			FROM reservations
			WHERE service_code = $1 AND status = 'called'
			ORDER BY called_at DESC NULLS LAST
			LIMIT 1
		`, svc.Code)
		if err := row.Scan(&current); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		statuses = append(statuses, store.ServiceQueueStatus{
			ServiceCode:      svc.Code,
			ServiceName:      svc.Name,
			CurrentNumber:    current,
			ActiveCount:      active,
			EstimatedWaitMin: active * int(s.waitPerActive/time.Minute),
		})
	}
	return statuses, nil
}

func (s *Store) CurrentlyCalled(ctx context.Context, serviceCode string) ([]models.Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE service_code = $1 AND status = 'called'
		ORDER BY called_at ASC NULLS FIRST
	`, serviceCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (s *Store) RecentlyCompleted(ctx context.Context, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = 'completed'
		ORDER BY completed_at DESC NULLS LAST
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (s *Store) ListOutboxEvents(ctx context.Context, cursor store.OutboxCursor, limit int) ([]store.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	lastID := cursor.LastEventID
	if lastID == "" {
		lastID = zeroUUID
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, type, service_code, payload_json, created_at
		FROM outbox_events
		WHERE (created_at, event_id) > ($1, $2::uuid)
		ORDER BY created_at ASC, event_id ASC
		LIMIT $3
	`, cursor.LastEventTime, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.Type, &event.ServiceCode, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// CancelStaleReservations cancels waiting reservations whose calendar day has
// passed without the citizen being called. Disabled unless the scavenger is
// turned on in config.
func (s *Store) CancelStaleReservations(ctx context.Context, now time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	today := now.Format("2006-01-02")
	rows, err := tx.Query(ctx, `
		UPDATE reservations
		SET status = 'cancelled',
			updated_at = $1
		WHERE reservation_id IN (
			SELECT reservation_id
			FROM reservations
			WHERE status = 'waiting' AND date < $2::date
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $3
		)
		RETURNING `+reservationColumns+`
	`, now, today, batchSize)
	if err != nil {
		return 0, err
	}
	cancelled, err := scanReservations(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	for _, reservation := range cancelled {
		if err = insertOutboxEvent(ctx, tx, "reservation.cancelled", reservation); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(cancelled), nil
}

func lockKey(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func countActiveInSlot(ctx context.Context, tx pgx.Tx, date, timeSlot string) (int, error) {
	var count int
	row := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM reservations
		WHERE date = $1::date AND time_slot = $2 AND status IN ('waiting', 'called')
	`, date, timeSlot)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func countActiveForService(ctx context.Context, tx pgx.Tx, serviceCode string) (int, error) {
	var count int
	row := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM reservations
		WHERE service_code = $1 AND status IN ('waiting', 'called')
	`, serviceCode)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// nextQueueNumber continues the per-service sequence from the most recently
// issued ticket. Sequences survive completion, cancellation, and deletion of
// old rows only as long as the latest row for the prefix remains; the parse
// fallback keeps issuing unique labels when it does not parse. entry_seq is
// the insertion order, created_at alone can tie when bookings land within
// the same timestamptz tick.
func nextQueueNumber(ctx context.Context, tx pgx.Tx, svc models.Service, now time.Time) (string, error) {
	prefix := models.TicketPrefix(svc)

	var latest string
	row := tx.QueryRow(ctx, `
		SELECT queue_number
		FROM reservations
		WHERE service_code = $1 AND queue_number LIKE $2
		ORDER BY entry_seq DESC
		LIMIT 1
	`, svc.Code, prefix+"-%")
	if err := row.Scan(&latest); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.FormatQueueNumber(prefix, 1), nil
		}
		return "", err
	}

	seq, err := store.ParseQueueSuffix(prefix, latest)
	if err != nil {
		fallback := store.FallbackQueueNumber(prefix, now)
		log.Printf("queue number parse failed for %q, issuing fallback %q: %v", latest, fallback, err)
		return fallback, nil
	}
	return store.FormatQueueNumber(prefix, seq+1), nil
}

func eventTypeFor(fromStatus, toStatus string) string {
	if fromStatus == toStatus {
		return "reservation.updated"
	}
	switch toStatus {
	case models.StatusCalled:
		return "reservation.called"
	case models.StatusCompleted:
		return "reservation.completed"
	case models.StatusCancelled:
		return "reservation.cancelled"
	default:
		return "reservation.updated"
	}
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, eventType string, reservation models.Reservation) error {
	payload := map[string]interface{}{
		"id":                reservation.ReservationID,
		"queueNumber":       reservation.QueueNumber,
		"service":           reservation.ServiceCode,
		"status":            reservation.Status,
		"date":              reservation.Date,
		"timeSlot":          reservation.TimeSlot,
		"estimatedCallTime": reservation.EstimatedCallTime,
		"createdAt":         reservation.CreatedAt,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, type, service_code, payload_json, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), eventType, reservation.ServiceCode, payloadJSON, time.Now().UTC())
	return err
}

func scanReservation(row pgx.Row) (models.Reservation, error) {
	var reservation models.Reservation
	var nationalIDNull sql.NullString
	var calledAtNull sql.NullTime
	var completedAtNull sql.NullTime
	if err := row.Scan(
		&reservation.ReservationID, &reservation.QueueNumber, &reservation.ServiceCode,
		&reservation.CitizenName, &reservation.Phone, &nationalIDNull,
		&reservation.Purpose, &reservation.Date, &reservation.TimeSlot,
		&reservation.Status, &reservation.EstimatedCallTime,
		&reservation.CreatedAt, &reservation.UpdatedAt, &calledAtNull, &completedAtNull,
	); err != nil {
		return models.Reservation{}, err
	}
	if nationalIDNull.Valid {
		reservation.NationalID = nationalIDNull.String
	}
	reservation.CalledAt = nullTimePtr(calledAtNull)
	reservation.CompletedAt = nullTimePtr(completedAtNull)
	return reservation, nil
}

func scanReservations(rows pgx.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	return &value.Time
}
