// Package storefront owns the items listed for sale, their price and
// demand modifier chains, and the simulated customer traffic that buys
// from them.
package storefront

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/clock"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/gamedata"
	"github.com/ironquill/forgeward/internal/ledger"
)

// Tuning defaults.
const (
	DefaultCustomerInterval = 15   // ticks between customer-visit rolls
	DefaultCustomerChance   = 40.0 // percent chance per roll, before traffic
	basePurchaseChance      = 0.6
)

// Listing is one item offered for sale. OverridePrice, when positive,
// replaces the computed price chain entirely.
type Listing struct {
	ItemID        string    `json:"item_id"`
	Quantity      int       `json:"quantity"`
	OverridePrice float64   `json:"override_price,omitempty"`
	LastSale      time.Time `json:"last_sale,omitzero"`
}

// Modifier is a time-bounded multiplier on demand or price.
type Modifier struct {
	Multiplier float64   `json:"multiplier"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Storefront runs the sales floor.
type Storefront struct {
	bus     *bus.Bus
	led     *ledger.Ledger
	clk     *clock.Clock
	rng     entropy.Source
	traffic *TrafficCurve
	now     func() time.Time

	listings     map[string]*Listing
	demandMods   map[string]Modifier // item id → demand multiplier
	priceMods    map[string]Modifier // item id → sale price multiplier
	categoryMods map[string]Modifier // category → sale price multiplier
	globalMod    Modifier            // all sale prices

	customerTimer    int
	customerInterval int
	customerChance   float64
}

// New creates an empty sales floor.
func New(b *bus.Bus, led *ledger.Ledger, clk *clock.Clock, rng entropy.Source, traffic *TrafficCurve) *Storefront {
	return &Storefront{
		bus:              b,
		led:              led,
		clk:              clk,
		rng:              rng,
		traffic:          traffic,
		now:              time.Now,
		listings:         make(map[string]*Listing),
		demandMods:       make(map[string]Modifier),
		priceMods:        make(map[string]Modifier),
		categoryMods:     make(map[string]Modifier),
		globalMod:        Modifier{Multiplier: 1},
		customerTimer:    DefaultCustomerInterval,
		customerInterval: DefaultCustomerInterval,
		customerChance:   DefaultCustomerChance,
	}
}

// SetNowFunc overrides the wall clock, for tests.
func (s *Storefront) SetNowFunc(now func() time.Time) { s.now = now }

// AddItem moves crafted stock from the ledger onto the sales floor.
// Fails without mutation when the ledger stock is short.
func (s *Storefront) AddItem(itemID string, qty int) bool {
	if qty <= 0 {
		return false
	}
	if _, ok := gamedata.ItemByID(itemID); !ok {
		return false
	}
	if !s.led.RemoveItem(itemID, qty) {
		s.bus.Publish(bus.TopicNotify, bus.Notify{
			Level:   bus.NotifyError,
			Message: "Not enough stock to list that item.",
		})
		return false
	}
	ls, ok := s.listings[itemID]
	if !ok {
		ls = &Listing{ItemID: itemID}
		s.listings[itemID] = ls
	}
	ls.Quantity += qty
	s.publishListings()
	return true
}

// RemoveItem moves listed stock back into the ledger. Fails without
// mutation when the listing is short.
func (s *Storefront) RemoveItem(itemID string, qty int) bool {
	ls, ok := s.listings[itemID]
	if !ok || qty <= 0 || ls.Quantity < qty {
		return false
	}
	ls.Quantity -= qty
	if ls.Quantity == 0 {
		delete(s.listings, itemID)
	}
	s.led.AddItem(itemID, qty)
	s.publishListings()
	return true
}

// SetOverridePrice pins a listing to an explicit asking price, bypassing
// the multiplier chain. Zero clears the override.
func (s *Storefront) SetOverridePrice(itemID string, price float64) bool {
	ls, ok := s.listings[itemID]
	if !ok || price < 0 {
		return false
	}
	ls.OverridePrice = price
	s.publishListings()
	return true
}

// Price computes the current asking price: base × global × category ×
// per-item, unless the listing carries an override, which wins outright.
func (s *Storefront) Price(itemID string) float64 {
	def, ok := gamedata.ItemByID(itemID)
	if !ok {
		return 0
	}
	if ls, ok := s.listings[itemID]; ok && ls.OverridePrice > 0 {
		return ls.OverridePrice
	}
	price := def.BasePrice
	price *= s.activeMult(s.globalMod)
	if mod, ok := s.categoryMods[def.Category]; ok {
		price *= s.activeMult(mod)
	}
	if mod, ok := s.priceMods[itemID]; ok {
		price *= s.activeMult(mod)
	}
	return price
}

// SellItem is a player-initiated direct sale at the current price.
func (s *Storefront) SellItem(itemID string, qty int) bool {
	ls, ok := s.listings[itemID]
	if !ok || qty <= 0 || ls.Quantity < qty {
		return false
	}
	s.executeSale(ls, qty)
	return true
}

// DemandMultiplier returns the live demand multiplier for an item, 1.0
// when none is active.
func (s *Storefront) DemandMultiplier(itemID string) float64 {
	mod, ok := s.demandMods[itemID]
	if !ok {
		return 1.0
	}
	return s.activeMult(mod)
}

// SetDemandMultiplier applies a time-bounded demand multiplier to one
// item, or to every currently defined item when itemID is "all".
func (s *Storefront) SetDemandMultiplier(itemID string, multiplier float64, expiresAt time.Time) {
	if itemID == "all" {
		for id := range gamedata.Items {
			s.demandMods[id] = Modifier{Multiplier: multiplier, ExpiresAt: expiresAt}
		}
		return
	}
	s.demandMods[itemID] = Modifier{Multiplier: multiplier, ExpiresAt: expiresAt}
}

// SetPriceMultiplier applies a time-bounded sale price multiplier to one
// item.
func (s *Storefront) SetPriceMultiplier(itemID string, multiplier float64, expiresAt time.Time) {
	s.priceMods[itemID] = Modifier{Multiplier: multiplier, ExpiresAt: expiresAt}
}

// SetCategoryMultiplier applies a time-bounded sale price multiplier to a
// whole category.
func (s *Storefront) SetCategoryMultiplier(category string, multiplier float64, expiresAt time.Time) {
	s.categoryMods[category] = Modifier{Multiplier: multiplier, ExpiresAt: expiresAt}
}

// SetGlobalMultiplier applies a time-bounded multiplier to every sale
// price.
func (s *Storefront) SetGlobalMultiplier(multiplier float64, expiresAt time.Time) {
	s.globalMod = Modifier{Multiplier: multiplier, ExpiresAt: expiresAt}
}

// Listings returns the current listings as read-only views, sorted by id.
func (s *Storefront) Listings() []bus.ListingView {
	out := make([]bus.ListingView, 0, len(s.listings))
	for _, ls := range s.listings {
		out = append(out, bus.ListingView{
			ItemID:   ls.ItemID,
			Quantity: ls.Quantity,
			Price:    s.Price(ls.ItemID),
			LastSale: ls.LastSale,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Update runs once per tick: sweep expired modifiers, then count down to
// the next customer-visit roll and simulate at most one purchase.
func (s *Storefront) Update() {
	s.sweepModifiers()

	s.customerTimer--
	if s.customerTimer > 0 {
		return
	}
	s.customerTimer = s.customerInterval

	chance := s.customerChance / 100
	if s.traffic != nil {
		chance *= s.traffic.Factor(s.clk.TotalMinutes())
	}
	if s.rng.Float() >= chance {
		return
	}

	itemID, ok := s.pickWeighted()
	if !ok {
		return
	}
	demand := s.DemandMultiplier(itemID)
	if s.rng.Float() >= basePurchaseChance*demand {
		return
	}

	ls := s.listings[itemID]
	maxQty := int(math.Floor(3 * demand))
	if maxQty < 1 {
		maxQty = 1
	}
	qty := 1 + s.rng.IntN(maxQty)
	if qty > ls.Quantity {
		qty = ls.Quantity
	}
	s.executeSale(ls, qty)
}

func (s *Storefront) executeSale(ls *Listing, qty int) {
	price := s.Price(ls.ItemID)
	total := price * float64(qty)

	ls.Quantity -= qty
	ls.LastSale = s.now()
	if ls.Quantity <= 0 {
		delete(s.listings, ls.ItemID)
	}
	s.led.AddMoney(total)

	name := ls.ItemID
	if def, ok := gamedata.ItemByID(ls.ItemID); ok {
		name = def.Name
	}
	s.bus.Publish(bus.TopicItemSold, bus.ItemSold{ItemID: ls.ItemID, Price: price, Quantity: qty})
	s.bus.Publish(bus.TopicNotify, bus.Notify{
		Level:   bus.NotifySuccess,
		Message: fmt.Sprintf("Sold %d× %s for %s coins.", qty, name, humanize.FtoaWithDigits(total, 2)),
	})
	s.publishListings()
	slog.Info("item sold", "item", ls.ItemID, "quantity", qty, "price", price)
}

// pickWeighted selects one in-stock listing, weighting each by its demand
// multiplier via cumulative subtraction. A degenerate zero total weight
// falls back to a uniform pick.
func (s *Storefront) pickWeighted() (string, bool) {
	ids := make([]string, 0, len(s.listings))
	total := 0.0
	for id, ls := range s.listings {
		if ls.Quantity > 0 {
			ids = append(ids, id)
			total += s.DemandMultiplier(id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)

	if total <= 0 {
		return ids[s.rng.IntN(len(ids))], true
	}
	roll := s.rng.Float() * total
	for _, id := range ids {
		roll -= s.DemandMultiplier(id)
		if roll <= 0 {
			return id, true
		}
	}
	return ids[len(ids)-1], true
}

func (s *Storefront) sweepModifiers() {
	now := s.now()
	for id, mod := range s.demandMods {
		if now.After(mod.ExpiresAt) {
			delete(s.demandMods, id)
		}
	}
	for id, mod := range s.priceMods {
		if now.After(mod.ExpiresAt) {
			delete(s.priceMods, id)
		}
	}
	for cat, mod := range s.categoryMods {
		if now.After(mod.ExpiresAt) {
			delete(s.categoryMods, cat)
		}
	}
}

func (s *Storefront) activeMult(mod Modifier) float64 {
	if mod.Multiplier <= 0 || s.now().After(mod.ExpiresAt) {
		return 1.0
	}
	return mod.Multiplier
}

func (s *Storefront) publishListings() {
	s.bus.Publish(bus.TopicStorefrontUpdated, bus.StorefrontUpdated{Listings: s.Listings()})
}

type snapshot struct {
	Listings     map[string]*Listing `json:"listings"`
	DemandMods   map[string]Modifier `json:"demand_mods"`
	PriceMods    map[string]Modifier `json:"price_mods"`
	CategoryMods map[string]Modifier `json:"category_mods"`
	GlobalMod    Modifier            `json:"global_mod"`
	Timer        int                 `json:"timer"`
}

// Component names the storefront in save snapshots.
func (s *Storefront) Component() string { return "storefront" }

// Snapshot serializes listings, modifiers, and the customer countdown.
func (s *Storefront) Snapshot() (json.RawMessage, error) {
	return json.Marshal(snapshot{
		Listings:     s.listings,
		DemandMods:   s.demandMods,
		PriceMods:    s.priceMods,
		CategoryMods: s.categoryMods,
		GlobalMod:    s.globalMod,
		Timer:        s.customerTimer,
	})
}

// Restore replaces storefront state, dropping listings for items the
// recipe table no longer knows.
func (s *Storefront) Restore(raw json.RawMessage) error {
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	s.listings = make(map[string]*Listing)
	for id, ls := range snap.Listings {
		if ls == nil || ls.Quantity <= 0 {
			continue
		}
		if _, ok := gamedata.ItemByID(id); !ok {
			slog.Warn("dropping listing for unknown item", "item", id)
			continue
		}
		ls.ItemID = id
		s.listings[id] = ls
	}
	s.demandMods = orEmpty(snap.DemandMods)
	s.priceMods = orEmpty(snap.PriceMods)
	s.categoryMods = orEmpty(snap.CategoryMods)
	if snap.GlobalMod.Multiplier > 0 {
		s.globalMod = snap.GlobalMod
	}
	if snap.Timer > 0 {
		s.customerTimer = snap.Timer
	}
	return nil
}

func orEmpty(m map[string]Modifier) map[string]Modifier {
	if m == nil {
		return make(map[string]Modifier)
	}
	return m
}
