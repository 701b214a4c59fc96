package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escola-hub/escola-admin-api/internal/models"
)

func resumoOn(id string, date time.Time) models.Resumo {
	return models.Resumo{ID: id, TurmaID: "tur-1", Date: date, Text: "Lição de casa: unidade 3"}
}

func TestGroupResumosByDate(t *testing.T) {
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	mar9 := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// Input comes date-descending with creation order inside each date, the
	// way the repository returns it.
	groups := GroupResumosByDate([]models.Resumo{
		resumoOn("res-1", mar10),
		resumoOn("res-2", mar10),
		resumoOn("res-3", mar9),
	})

	require.Len(t, groups, 2)
	assert.Equal(t, "10/03/2026", groups[0].Date)
	require.Len(t, groups[0].Resumos, 2)
	assert.Equal(t, "res-1", groups[0].Resumos[0].ID)
	assert.Equal(t, "res-2", groups[0].Resumos[1].ID)
	assert.Equal(t, "09/03/2026", groups[1].Date)
	assert.Equal(t, "res-3", groups[1].Resumos[0].ID)
}

func TestGroupResumosByDateEmpty(t *testing.T) {
	groups := GroupResumosByDate(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupResumosByDateIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 19, 30, 0, 0, time.UTC)

	groups := GroupResumosByDate([]models.Resumo{
		resumoOn("res-1", morning),
		resumoOn("res-2", evening),
	})

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Resumos, 2)
}
