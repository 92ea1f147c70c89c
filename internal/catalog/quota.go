// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/apex/log"
)

// Quota comparison statuses.
const (
	StatusOK            = "OK"
	StatusExceedsQuota  = "EXCEEDS_QUOTA"
	StatusNoQuotaInfo   = "NO_QUOTA_INFO"
	StatusNoDeployments = "NO_DEPLOYMENTS"
)

// Account kinds considered by the capacity query.
var (
	OpenAIKinds = []string{"OpenAI"}
	AllKinds    = []string{"OpenAI", "AIServices"}
)

// QuotaKey identifies one model SKU in one region.
type QuotaKey struct {
	Subscription string
	Region       string
	Model        string
	Version      string
	SKU          string
}

func (k QuotaKey) less(o QuotaKey) bool {
	a := []string{k.Subscription, k.Region, k.Model, k.Version, k.SKU}
	b := []string{o.Subscription, o.Region, o.Model, o.Version, o.SKU}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// QuotaRow compares deployed capacity with the catalog maximum for one key.
type QuotaRow struct {
	ID           string `jsonapi:"primary,quotas"`
	Subscription string `jsonapi:"attr,subscription"`
	Region       string `jsonapi:"attr,region"`
	Model        string `jsonapi:"attr,model"`
	Version      string `jsonapi:"attr,version"`
	SKU          string `jsonapi:"attr,sku"`
	Deployed     int64  `jsonapi:"attr,deployed"`
	QuotaMax     *int64 `jsonapi:"attr,quota_max,omitempty"`
	Remaining    *int64 `jsonapi:"attr,remaining,omitempty"`
	Status       string `jsonapi:"attr,status"`
}

// Quotas maps every catalog SKU in region to its maximum capacity. A SKU
// without a maximum maps to nil.
func Quotas(subscription, region string, models []Model) map[QuotaKey]*int64 {
	q := map[QuotaKey]*int64{}
	for _, m := range models {
		for _, s := range m.SKUs {
			q[QuotaKey{subscription, region, m.Name, m.Version, s.Name}] = s.Maximum
		}
	}
	return q
}

// CompareQuota compares the deployed capacity per key to the catalog
// maximum. Deployed keys come first, then catalog keys with no deployment,
// each group sorted by key.
func CompareQuota(quotas map[QuotaKey]*int64, deployed map[QuotaKey]int64) []*QuotaRow {
	depKeys := make([]QuotaKey, 0, len(deployed))
	for k := range deployed {
		depKeys = append(depKeys, k)
	}
	sort.Slice(depKeys, func(i, j int) bool { return depKeys[i].less(depKeys[j]) })

	var idle []QuotaKey
	for k := range quotas {
		if _, ok := deployed[k]; !ok {
			idle = append(idle, k)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].less(idle[j]) })

	rows := make([]*QuotaRow, 0, len(depKeys)+len(idle))
	for _, k := range depKeys {
		sum := deployed[k]
		row := newQuotaRow(k, sum)
		quota, known := quotas[k]
		switch {
		case !known || quota == nil:
			row.Status = StatusNoQuotaInfo
		default:
			row.QuotaMax = quota
			remaining := *quota - sum
			row.Remaining = &remaining
			row.Status = StatusOK
			if sum > *quota {
				row.Status = StatusExceedsQuota
			}
		}
		rows = append(rows, row)
	}
	for _, k := range idle {
		row := newQuotaRow(k, 0)
		row.QuotaMax = quotas[k]
		row.Remaining = quotas[k]
		row.Status = StatusNoDeployments
		rows = append(rows, row)
	}
	return rows
}

func newQuotaRow(k QuotaKey, deployed int64) *QuotaRow {
	return &QuotaRow{
		ID:           rowID(k.Region, k.Model, k.Version, k.SKU),
		Subscription: k.Subscription,
		Region:       k.Region,
		Model:        k.Model,
		Version:      k.Version,
		SKU:          k.SKU,
		Deployed:     deployed,
	}
}

// Capacity lists the accounts of kinds, the catalog of every region they live
// in and their deployments, and compares them. A region or account that
// cannot be read is logged and left out.
func (c *Catalog) Capacity(ctx context.Context, kinds []string) ([]*QuotaRow, error) {
	accounts, err := c.Accounts(ctx, kinds...)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts of kind %v found in subscription %s", kinds, c.subscription)
	}

	quotas := map[QuotaKey]*int64{}
	regions := map[string]bool{}
	for _, a := range accounts {
		if a.Location == "" || regions[a.Location] {
			continue
		}
		regions[a.Location] = true

		log.Infof("fetching model quotas for region %s", a.Location)
		models, err := c.Models(ctx, a.Location)
		if err != nil {
			log.WithError(err).Warnf("skipping quotas for region %s", a.Location)
			continue
		}
		for k, v := range Quotas(c.subscription, a.Location, models) {
			quotas[k] = v
		}
	}

	deployed := map[QuotaKey]int64{}
	for _, a := range accounts {
		log.Infof("fetching deployments for account %s in %s", a.Name, a.Location)
		deps, err := c.Deployments(ctx, a)
		if err != nil {
			log.WithError(err).Warnf("skipping deployments for account %s", a.Name)
			continue
		}
		for _, d := range deps {
			deployed[QuotaKey{c.subscription, a.Location, d.Model, d.Version, d.SKU}] += d.Capacity
		}
	}

	return CompareQuota(quotas, deployed), nil
}

var csvHeader = []string{"subscription", "region", "model", "version", "sku", "deployed", "quota_max", "remaining", "status"}

// WriteCSV writes rows with a header. Unknown quotas are empty cells.
func WriteCSV(w io.Writer, rows []*QuotaRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Subscription, r.Region, r.Model, r.Version, r.SKU,
			strconv.FormatInt(r.Deployed, 10), optInt(r.QuotaMax), optInt(r.Remaining), r.Status,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
