package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements allocation.UnitOfWork over a single pgx
// transaction. Every repository it hands out runs on the same
// transaction, so the topic status column and the reservation ledger
// commit or roll back together.
type UnitOfWork struct {
	tx           pgx.Tx
	topics       *TopicRepository
	reservations *ReservationRepository
	students     *StudentRepository
}

// Topics returns the transaction-scoped topic repository.
func (u *UnitOfWork) Topics() topic.Repository {
	return u.topics
}

// Reservations returns the transaction-scoped reservation ledger.
func (u *UnitOfWork) Reservations() reservation.Repository {
	return u.reservations
}

// Students returns the transaction-scoped student repository.
func (u *UnitOfWork) Students() group.StudentRepository {
	return u.students
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// UnitOfWorkFactory implements allocation.UnitOfWorkFactory.
type UnitOfWorkFactory struct {
	conn *Connection
}

// NewUnitOfWorkFactory creates a factory bound to the connection pool.
func NewUnitOfWorkFactory(conn *Connection) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{conn: conn}
}

// Begin opens a ReadCommitted read-write transaction and wraps it in a
// unit of work.
func (f *UnitOfWorkFactory) Begin(ctx context.Context) (allocation.UnitOfWork, error) {
	tx, err := f.conn.BeginTx(ctx, DefaultTxOptions())
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}

	return &UnitOfWork{
		tx:           tx,
		topics:       NewTopicRepository(tx),
		reservations: NewReservationRepository(tx),
		students:     NewStudentRepository(tx),
	}, nil
}
