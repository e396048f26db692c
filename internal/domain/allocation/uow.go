// Package allocation определяет транзакционный контракт координатора
// назначений: реестр тем и журнал резерваций мутируются вместе -
// всё или ничего. Реализация находится в infrastructure/persistence.
package allocation

import (
	"context"

	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// UnitOfWork представляет единицу работы с транзакционной семантикой.
// Все репозитории, полученные из одной единицы работы, разделяют
// одну транзакцию хранилища.
type UnitOfWork interface {
	// Topics возвращает реестр тем в рамках транзакции.
	Topics() topic.Repository

	// Reservations возвращает журнал резерваций в рамках транзакции.
	Reservations() reservation.Repository

	// Students возвращает репозиторий студентов в рамках транзакции.
	Students() group.StudentRepository

	// Commit фиксирует транзакцию.
	Commit(ctx context.Context) error

	// Rollback откатывает транзакцию. Безопасен после Commit.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory создаёт единицы работы.
type UnitOfWorkFactory interface {
	// Begin начинает новую транзакцию.
	Begin(ctx context.Context) (UnitOfWork, error)
}
