package feast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/core"
)

type fakeClient struct {
	values map[int64]map[string]float64
	err    error
	last   *GetOnlineFeaturesRequest
}

func (f *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	resp := &GetOnlineFeaturesResponse{}
	for _, row := range req.EntityRows {
		id := row[DefaultEntityKey].(int64)
		resp.FeatureVectors = append(resp.FeatureVectors, FeatureVector{Values: f.values[id], EntityRow: row})
	}
	return resp, nil
}

func (f *fakeClient) Close() error { return nil }

func TestSignalSource_GetSignals(t *testing.T) {
	client := &fakeClient{values: map[int64]map[string]float64{
		1: {DefaultSalesFeature: 120, DefaultReviewsFeature: 4.5},
		2: {DefaultReviewsFeature: 3},
	}}
	src := NewSignalSource(client, "shop")

	got, err := src.GetSignals(context.Background(), []core.ItemID{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, "shop", client.last.Project)
	assert.Len(t, client.last.EntityRows, 3)
	assert.Equal(t, int64(120), got[1].SalesRank)
	assert.Equal(t, 4.5, got[1].ReviewsAvg)
	assert.True(t, got[1].HasSalesRank)
	assert.True(t, got[1].HasReviewsAvg)
	assert.Equal(t, 3.0, got[2].ReviewsAvg)
	assert.True(t, got[2].HasReviewsAvg)
	assert.False(t, got[2].HasSalesRank, "sales feature absent from feast")
	_, ok := got[3]
	assert.False(t, ok, "missing entity keeps catalog values")
}

func TestSignalSource_Unavailable(t *testing.T) {
	src := NewSignalSource(&fakeClient{err: errors.New("connection refused")}, "shop")

	_, err := src.GetSignals(context.Background(), []core.ItemID{1})
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

func TestSignalSource_Empty(t *testing.T) {
	client := &fakeClient{}
	got, err := NewSignalSource(client, "shop").GetSignals(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, client.last)
}
