// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cognitiveservices/armcognitiveservices"
	"github.com/apex/log"

	"github.com/staranto/foundryctl/internal/cacheutil"
)

// ErrSubscriptionNotSet is returned by New without a subscription id.
var ErrSubscriptionNotSet = errors.New("subscription id is not set")

// armModuleVersion identifies this client to the ARM telemetry policy.
const armModuleVersion = "v0.1.0"

// Model is a catalog entry flattened to what the commands use.
type Model struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	SKUName     string `json:"skuName,omitempty"`
	Format      string `json:"format,omitempty"`
	MaxCapacity *int64 `json:"maxCapacity,omitempty"`
	SKUs        []SKU  `json:"skus,omitempty"`
}

// SKU is one deployable SKU of a model with its capacity bounds.
type SKU struct {
	Name    string `json:"name"`
	Minimum *int64 `json:"minimum,omitempty"`
	Maximum *int64 `json:"maximum,omitempty"`
	Default *int64 `json:"default,omitempty"`
}

// Account is a Cognitive Services account. ResourceGroup is parsed from ID.
type Account struct {
	ID            string
	Name          string
	Kind          string
	Location      string
	ResourceGroup string
}

// Deployment is a model deployment on an account. Capacity is zero when the
// SKU does not expose one.
type Deployment struct {
	Name     string
	Model    string
	Version  string
	SKU      string
	Capacity int64
}

// Catalog reads ARM for one subscription.
type Catalog struct {
	subscription string
	factory      *armcognitiveservices.ClientFactory
	arm          *arm.Client
}

// New returns a Catalog for subscription. opts, when not nil, is shared by
// every ARM client it creates.
func New(subscription string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Catalog, error) {
	if subscription == "" {
		return nil, ErrSubscriptionNotSet
	}
	f, err := armcognitiveservices.NewClientFactory(subscription, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARM client: %w", err)
	}
	ac, err := arm.NewClient("foundryctl", armModuleVersion, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARM client: %w", err)
	}
	return &Catalog{subscription: subscription, factory: f, arm: ac}, nil
}

// Subscription is the subscription id the catalog reads.
func (c *Catalog) Subscription() string {
	return c.subscription
}

// Models lists the catalog for location, through the on-disk cache keyed by
// subscription and location.
func (c *Catalog) Models(ctx context.Context, location string) ([]Model, error) {
	data, hit, err := cacheutil.Remember([]string{"models", c.subscription}, location, func() ([]byte, error) {
		models, err := c.fetchModels(ctx, location)
		if err != nil {
			return nil, err
		}
		return json.Marshal(models)
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("models for %s (cached=%t)", location, hit)

	var models []Model
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("failed to decode cached models: %w", err)
	}
	return models, nil
}

func (c *Catalog) fetchModels(ctx context.Context, location string) ([]Model, error) {
	pager := c.factory.NewModelsClient().NewListPager(location, nil)

	var models []Model
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list models in %s: %w", location, err)
		}
		for _, m := range page.Value {
			if m == nil {
				continue
			}
			models = append(models, flatten(m))
		}
	}
	return models, nil
}

func flatten(m *armcognitiveservices.Model) Model {
	out := Model{Kind: deref(m.Kind), SKUName: deref(m.SKUName)}
	if m.Model == nil {
		return out
	}
	out.Name = deref(m.Model.Name)
	out.Version = deref(m.Model.Version)
	out.Format = deref(m.Model.Format)
	out.MaxCapacity = widen(m.Model.MaxCapacity)
	for _, s := range m.Model.SKUs {
		if s == nil {
			continue
		}
		sku := SKU{Name: deref(s.Name)}
		if s.Capacity != nil {
			sku.Minimum = widen(s.Capacity.Minimum)
			sku.Maximum = widen(s.Capacity.Maximum)
			sku.Default = widen(s.Capacity.Default)
		}
		out.SKUs = append(out.SKUs, sku)
	}
	return out
}

// Accounts lists the Cognitive Services accounts whose kind contains any of
// kinds.
func (c *Catalog) Accounts(ctx context.Context, kinds ...string) ([]Account, error) {
	pager := c.factory.NewAccountsClient().NewListPager(nil)

	var accounts []Account
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Cognitive Services accounts: %w", err)
		}
		for _, a := range page.Value {
			if a == nil || !kindMatches(deref(a.Kind), kinds) {
				continue
			}
			acct := Account{
				ID:       deref(a.ID),
				Name:     deref(a.Name),
				Kind:     deref(a.Kind),
				Location: deref(a.Location),
			}
			if rid, err := arm.ParseResourceID(acct.ID); err == nil {
				acct.ResourceGroup = rid.ResourceGroupName
			} else {
				log.WithError(err).Warnf("unable to parse account id %q", acct.ID)
			}
			accounts = append(accounts, acct)
		}
	}
	return accounts, nil
}

func kindMatches(kind string, kinds []string) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if kind != "" && strings.Contains(kind, k) {
			return true
		}
	}
	return false
}

// Deployments lists the deployments of acct.
func (c *Catalog) Deployments(ctx context.Context, acct Account) ([]Deployment, error) {
	if acct.ResourceGroup == "" {
		return nil, fmt.Errorf("account %s has no resource group", acct.Name)
	}
	pager := c.factory.NewDeploymentsClient().NewListPager(acct.ResourceGroup, acct.Name, nil)

	var deps []Deployment
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments for %s: %w", acct.Name, err)
		}
		for _, d := range page.Value {
			if d == nil {
				continue
			}
			dep := Deployment{Name: deref(d.Name)}
			if d.Properties != nil && d.Properties.Model != nil {
				dep.Model = deref(d.Properties.Model.Name)
				dep.Version = deref(d.Properties.Model.Version)
			}
			if d.SKU != nil {
				dep.SKU = deref(d.SKU.Name)
				if d.SKU.Capacity != nil {
					dep.Capacity = int64(*d.SKU.Capacity)
				}
			}
			deps = append(deps, dep)
		}
	}
	return deps, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func widen(v *int32) *int64 {
	if v == nil {
		return nil
	}
	w := int64(*v)
	return &w
}
