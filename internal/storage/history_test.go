package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(currency string, prices ...float64) *model.Document {
	doc := &model.Document{Header: model.DocumentHeader{Title: "PI", CurrencyCode: currency}}
	for _, p := range prices {
		item := model.NewLineItem()
		item.ProductNameLocal = "Widget"
		item.UnitPriceForeign = model.Num(p)
		doc.Items = append(doc.Items, item)
	}
	return doc
}

func TestHistory_ArchiveAndList(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, err := store.ArchiveDocument(ctx, testDocument("usd", 10, 11))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	_, err = store.ArchiveDocument(ctx, testDocument("EUR", 9))
	require.NoError(t, err)

	records, err := store.ListHistoricalRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, "USD", records[0].Header.CurrencyCode)
	require.Len(t, records[0].Items, 2)
	assert.InDelta(t, 11, records[0].Items[1].UnitPriceForeign.Float(), 1e-9)
	assert.True(t, records[0].Items[0].UnitCostDomestic.IsBlank(), "blank numbers survive the round trip")

	got, err := store.GetHistoricalRecord(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "PI", got.Header.Title)
}

func TestHistory_Delete(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	record, err := store.ArchiveDocument(ctx, testDocument("USD", 10))
	require.NoError(t, err)

	require.NoError(t, store.DeleteHistoricalRecord(ctx, record.ID))
	_, err = store.GetHistoricalRecord(ctx, record.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteHistoricalRecord(ctx, record.ID), common.ErrNotFound)
}

func TestHistory_RejectsInvalidDocuments(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.ArchiveDocument(ctx, testDocument(""))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = store.ArchiveDocument(ctx, testDocument("USD"))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = store.ArchiveDocument(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)
}

func TestHistoryVersion_ChangesWithCorpus(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	empty, err := store.HistoryVersion(ctx)
	require.NoError(t, err)

	again, err := store.HistoryVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, empty, again, "version is stable while the corpus is unchanged")

	record, err := store.ArchiveDocument(ctx, testDocument("USD", 10))
	require.NoError(t, err)
	afterArchive, err := store.HistoryVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, empty, afterArchive)

	require.NoError(t, store.DeleteHistoricalRecord(ctx, record.ID))
	afterDelete, err := store.HistoryVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, afterArchive, afterDelete)
}
