// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package catalog

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reservationsPath = "/providers/Microsoft.Capacity/reservations"

func newThroughputFake() *armFake {
	fake := newFake()
	fake.queries = map[string]url.Values{}
	fake.bodies[reservationsPath] = `{"value":[
 {"id":"/providers/Microsoft.Capacity/reservationOrders/o1/reservations/r1","sku":{"name":"GlobalStandard"},"properties":{"quantity":400,"reservedResourceType":"OpenAIPTU"}},
 {"id":"/providers/Microsoft.Capacity/reservationOrders/o1/reservations/r2","sku":{"name":"DataZoneProvisionedManaged"},"properties":{"quantity":50,"reservedResourceType":"OpenAIPTU"}}
],"nextLink":"https://management.azure.com` + reservationsPath + `?api-version=2022-11-01&$skiptoken=p2"}`
	fake.bodies[reservationsPath+"?p2"] = `{"value":[
 {"id":"/providers/Microsoft.Capacity/reservationOrders/o2/reservations/r3","sku":{"name":"GlobalStandard"},"properties":{"quantity":150,"reservedResourceType":"OpenAIPTU"}},
 {"id":"/providers/Microsoft.Capacity/reservationOrders/o2/reservations/r4","sku":{"name":"Standard"},"properties":{"reservedResourceType":"OpenAIPTU"}}
]}`
	return fake
}

func TestReservations(t *testing.T) {
	fake := newThroughputFake()
	c := newCatalog(t, fake)

	res, err := c.Reservations(context.Background(), ReservationFilter{ResourceType: DefaultReservedResourceType, State: "Succeeded"})
	require.NoError(t, err)
	require.Len(t, res, 3, "the reservation without a quantity is left out")
	assert.Equal(t, "GlobalStandard", res[0].SKU)
	assert.InDelta(t, 400, res[0].Quantity, 0.001)
	assert.Equal(t, "OpenAIPTU", res[0].ResourceType)
	assert.InDelta(t, 150, res[2].Quantity, 0.001)

	assert.Equal(t, 1, fake.calls[reservationsPath])
	assert.Equal(t, 1, fake.calls[reservationsPath+"?p2"])

	q := fake.queries[reservationsPath]
	assert.Equal(t, "2022-11-01", q.Get("api-version"))
	assert.Equal(t,
		"properties/reservedResourceType eq 'OpenAIPTU' and properties/provisioningState eq 'Succeeded'",
		q.Get("$filter"))
}

func TestReservationFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter ReservationFilter
		want   string
	}{
		{"empty", ReservationFilter{}, ""},
		{"type", ReservationFilter{ResourceType: "OpenAIPTU"}, "properties/reservedResourceType eq 'OpenAIPTU'"},
		{"state", ReservationFilter{State: "Succeeded"}, "properties/provisioningState eq 'Succeeded'"},
		{"quote", ReservationFilter{State: "it's"}, "properties/provisioningState eq 'it''s'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.odata())
		})
	}
}

func TestCompareThroughput(t *testing.T) {
	tests := []struct {
		name string
		deps []Deployment
		res  []Reservation
		want []ThroughputRow
	}{
		{
			name: "nothing",
			want: []ThroughputRow{},
		},
		{
			name: "under reserved",
			deps: []Deployment{{Name: "a", SKU: "GlobalStandard", Capacity: 300}, {Name: "b", SKU: "GlobalStandard", Capacity: 200}},
			res:  []Reservation{{SKU: "GlobalStandard", Quantity: 400}},
			want: []ThroughputRow{{ID: "GlobalStandard", SKU: "GlobalStandard", Deployed: 500, Reserved: 400, Delta: -100}},
		},
		{
			name: "reserved only and sorted",
			deps: []Deployment{{Name: "a", SKU: "Standard", Capacity: 10}},
			res:  []Reservation{{SKU: "DataZone", Quantity: 50}},
			want: []ThroughputRow{
				{ID: "DataZone", SKU: "DataZone", Reserved: 50, Delta: 50},
				{ID: "Standard", SKU: "Standard", Deployed: 10, Delta: -10},
			},
		},
		{
			name: "no capacity skipped",
			deps: []Deployment{{Name: "a", SKU: "Standard"}, {Name: "b", Capacity: 5}},
			want: []ThroughputRow{{ID: "Unknown", SKU: "Unknown", Deployed: 5, Delta: -5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := CompareThroughput(tt.deps, tt.res)
			got := make([]ThroughputRow, 0, len(rows))
			for _, r := range rows {
				got = append(got, *r)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThroughput(t *testing.T) {
	c := newCatalog(t, newThroughputFake())

	_, err := c.Throughput(context.Background(), Account{Name: "aoai-east"}, ReservationFilter{})
	assert.ErrorIs(t, err, ErrAccountNotSet)

	rows, err := c.Throughput(context.Background(),
		Account{Name: "aoai-east", ResourceGroup: "rg-ai"},
		ReservationFilter{ResourceType: DefaultReservedResourceType})
	require.NoError(t, err)

	byID := map[string]*ThroughputRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	require.Len(t, byID, 3)
	assert.InDelta(t, 500, byID["GlobalStandard"].Deployed, 0.001)
	assert.InDelta(t, 550, byID["GlobalStandard"].Reserved, 0.001)
	assert.InDelta(t, 50, byID["GlobalStandard"].Delta, 0.001)
	assert.InDelta(t, 120, byID["Standard"].Deployed, 0.001)
	assert.InDelta(t, -120, byID["Standard"].Delta, 0.001)
	assert.InDelta(t, 50, byID["DataZoneProvisionedManaged"].Reserved, 0.001)

	total := ThroughputTotal(rows)
	assert.Equal(t, TotalID, total.ID)
	assert.InDelta(t, 620, total.Deployed, 0.001)
	assert.InDelta(t, 600, total.Reserved, 0.001)
	assert.InDelta(t, -20, total.Delta, 0.001)
}

func TestWriteThroughputCSV(t *testing.T) {
	rows := []*ThroughputRow{{SKU: "GlobalStandard", Deployed: 500, Reserved: 400, Delta: -100}}
	rows = append(rows, ThroughputTotal(rows))

	var buf bytes.Buffer
	require.NoError(t, WriteThroughputCSV(&buf, rows))
	assert.Equal(t,
		"sku,deployed,reserved,delta\nGlobalStandard,500.00,400.00,-100.00\nTOTAL,500.00,400.00,-100.00\n",
		buf.String())
}
