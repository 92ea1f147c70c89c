// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/apex/log"
)

// ErrAccountNotSet is returned when the account or its resource group is
// missing.
var ErrAccountNotSet = errors.New("account is not set; use --account and --resource-group")

// DefaultReservedResourceType is the reservation type provisioned throughput
// is bought under.
const DefaultReservedResourceType = "OpenAIPTU"

const reservationsAPIVersion = "2022-11-01"

// Reservation is a capacity reservation flattened to its PTU quantity.
type Reservation struct {
	ID           string
	SKU          string
	Quantity     float64
	ResourceType string
}

// ReservationFilter narrows the reservations listed. Empty fields match
// everything.
type ReservationFilter struct {
	ResourceType string
	State        string
}

// odata renders f as a $filter expression.
func (f ReservationFilter) odata() string {
	quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

	var terms []string
	if f.ResourceType != "" {
		terms = append(terms, "properties/reservedResourceType eq "+quote(f.ResourceType))
	}
	if f.State != "" {
		terms = append(terms, "properties/provisioningState eq "+quote(f.State))
	}
	return strings.Join(terms, " and ")
}

type reservationPage struct {
	Value []struct {
		ID  string `json:"id"`
		SKU *struct {
			Name string `json:"name"`
		} `json:"sku"`
		Properties *struct {
			Quantity             *float64 `json:"quantity"`
			ReservedResourceType string   `json:"reservedResourceType"`
		} `json:"properties"`
	} `json:"value"`
	NextLink string `json:"nextLink"`
}

// Reservations lists the reservations visible to the credential that match
// f, following nextLink. Reservations without a quantity are logged and left
// out.
func (c *Catalog) Reservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	q := url.Values{}
	q.Set("api-version", reservationsAPIVersion)
	if expr := f.odata(); expr != "" {
		q.Set("$filter", expr)
	}
	next := runtime.JoinPaths(c.arm.Endpoint(), "/providers/Microsoft.Capacity/reservations") + "?" + q.Encode()

	var out []Reservation
	for next != "" {
		req, err := runtime.NewRequest(ctx, http.MethodGet, next)
		if err != nil {
			return nil, fmt.Errorf("failed to build reservations request: %w", err)
		}
		resp, err := c.arm.Pipeline().Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list reservations: %w", err)
		}
		if !runtime.HasStatusCode(resp, http.StatusOK) {
			return nil, fmt.Errorf("failed to list reservations: %w", runtime.NewResponseError(resp))
		}

		var page reservationPage
		if err := runtime.UnmarshalAsJSON(resp, &page); err != nil {
			return nil, fmt.Errorf("failed to decode reservations: %w", err)
		}
		for _, v := range page.Value {
			if v.Properties == nil || v.Properties.Quantity == nil {
				log.Warnf("reservation %s has no quantity", v.ID)
				continue
			}
			r := Reservation{
				ID:           v.ID,
				SKU:          "Unknown",
				Quantity:     *v.Properties.Quantity,
				ResourceType: v.Properties.ReservedResourceType,
			}
			if v.SKU != nil && v.SKU.Name != "" {
				r.SKU = v.SKU.Name
			}
			out = append(out, r)
		}
		next = page.NextLink
	}
	return out, nil
}

// ThroughputRow compares deployed with reserved PTUs for one SKU. Delta is
// reserved less deployed, negative when more is deployed than reserved.
type ThroughputRow struct {
	ID       string  `jsonapi:"primary,throughput"`
	SKU      string  `jsonapi:"attr,sku"`
	Deployed float64 `jsonapi:"attr,deployed"`
	Reserved float64 `jsonapi:"attr,reserved"`
	Delta    float64 `jsonapi:"attr,delta"`
}

// TotalID is the id of the row summing every SKU.
const TotalID = "TOTAL"

// CompareThroughput totals deployments and reservations per SKU, sorted by
// SKU. Deployments without a capacity are left out.
func CompareThroughput(deps []Deployment, res []Reservation) []*ThroughputRow {
	bySKU := map[string]*ThroughputRow{}
	row := func(sku string) *ThroughputRow {
		if sku == "" {
			sku = "Unknown"
		}
		r, ok := bySKU[sku]
		if !ok {
			r = &ThroughputRow{ID: sku, SKU: sku}
			bySKU[sku] = r
		}
		return r
	}

	for _, d := range deps {
		if d.Capacity == 0 {
			log.Warnf("deployment %s does not expose a capacity value", d.Name)
			continue
		}
		row(d.SKU).Deployed += float64(d.Capacity)
	}
	for _, r := range res {
		row(r.SKU).Reserved += r.Quantity
	}

	rows := make([]*ThroughputRow, 0, len(bySKU))
	for _, r := range bySKU {
		r.Delta = r.Reserved - r.Deployed
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })
	return rows
}

// ThroughputTotal sums rows into a single TOTAL row.
func ThroughputTotal(rows []*ThroughputRow) *ThroughputRow {
	t := &ThroughputRow{ID: TotalID, SKU: TotalID}
	for _, r := range rows {
		t.Deployed += r.Deployed
		t.Reserved += r.Reserved
	}
	t.Delta = t.Reserved - t.Deployed
	return t
}

// Throughput compares the PTUs deployed on one account with the reservations
// matching f.
func (c *Catalog) Throughput(ctx context.Context, acct Account, f ReservationFilter) ([]*ThroughputRow, error) {
	if acct.Name == "" || acct.ResourceGroup == "" {
		return nil, ErrAccountNotSet
	}

	log.Infof("fetching deployments for account %s in %s", acct.Name, acct.ResourceGroup)
	deps, err := c.Deployments(ctx, acct)
	if err != nil {
		return nil, err
	}

	log.Infof("fetching reservations (%s)", f.odata())
	res, err := c.Reservations(ctx, f)
	if err != nil {
		return nil, err
	}

	return CompareThroughput(deps, res), nil
}

// WriteThroughputCSV writes rows with a header, two decimals per number.
func WriteThroughputCSV(w io.Writer, rows []*ThroughputRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sku", "deployed", "reserved", "delta"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.SKU, decimal(r.Deployed), decimal(r.Reserved), decimal(r.Delta)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
