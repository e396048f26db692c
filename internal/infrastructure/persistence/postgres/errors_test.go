package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

func TestStorageErrClassification(t *testing.T) {
	// Отказ драйвера классифицируется как ошибка хранилища, исходная
	// ошибка остаётся в цепочке для логов.
	driverErr := errors.New("connection refused")
	err := storageErr("get topic", driverErr)

	assert.True(t, shared.IsStorage(err))
	assert.False(t, shared.IsNotFound(err))
	assert.False(t, shared.IsConflict(err))
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "get topic")
}
