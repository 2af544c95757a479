package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/internal/complaint/models"
	complaintstore "complaintdesk/internal/complaint/store"
	"complaintdesk/internal/report/store"
	id "complaintdesk/pkg/domain"
)

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	cs := complaintstore.NewInMemory()
	f, err := seed(ctx, cs)
	require.NoError(t, err)
	src := store.NewMemory(cs, bangkok)

	t.Run("complaints by effective date", func(t *testing.T) {
		facts, err := src.ComplaintFacts(ctx, window)
		require.NoError(t, err)
		assert.ElementsMatch(t, []id.ComplaintID{f.inWindow, f.rejected, f.createdIn}, ids(facts))

		for _, fact := range facts {
			if fact.ID == f.inWindow {
				assert.Equal(t, []string{models.ActFood, models.ActDrug}, fact.RelatedActs)
				assert.Equal(t, "บางพลี", *fact.District)
				assert.NotNil(t, fact.InvestigationDate)
			}
		}
	})

	t.Run("unbounded range returns everything", func(t *testing.T) {
		facts, err := src.ComplaintFacts(ctx, store.Range{})
		require.NoError(t, err)
		assert.Len(t, facts, 5)
	})

	t.Run("fines skip rejected complaints and rows outside the range", func(t *testing.T) {
		fines, err := src.FineFacts(ctx, window, store.FineFilter{})
		require.NoError(t, err)
		require.Len(t, fines, 2)
		total := decimal.Zero
		for _, fine := range fines {
			assert.Equal(t, f.inWindow, fine.ComplaintID)
			total = total.Add(fine.Amount)
		}
		assert.True(t, decimal.RequireFromString("5150.25").Equal(total))
	})

	t.Run("fine filter", func(t *testing.T) {
		fines, err := src.FineFacts(ctx, window, store.FineFilter{Act: models.ActFood, Section: "(1)"})
		require.NoError(t, err)
		require.Len(t, fines, 1)
		assert.Equal(t, "25(1)", fines[0].Section)

		fines, err = src.FineFacts(ctx, window, store.FineFilter{Act: "อาหารเสริม"})
		require.NoError(t, err)
		assert.Empty(t, fines)
	})
}
