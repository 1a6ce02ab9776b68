// Package leaderboard turns the donation history into per-donor totals.
//
// Everything here is a pure function of its inputs: the caller loads a
// snapshot of donations, the fundraiser to creator index and the profile
// directory, and gets back a freshly computed, deterministically ordered view.
package leaderboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

const (
	AnonymousName      = "Anonymous"
	UnknownCreatorName = "Unknown"
)

type Sort string

const (
	SortTotalDesc Sort = "total_desc"
	SortTotalAsc  Sort = "total_asc"
	SortNameAsc   Sort = "name_asc"
	SortNameDesc  Sort = "name_desc"
)

var sortAliases = map[string]Sort{
	"":           SortTotalDesc,
	"total_desc": SortTotalDesc,
	"total_asc":  SortTotalAsc,
	"name_asc":   SortNameAsc,
	"name_desc":  SortNameDesc,
	"highest":    SortTotalDesc,
	"lowest":     SortTotalAsc,
	"az":         SortNameAsc,
	"za":         SortNameDesc,
}

// ParseSort accepts the canonical names and the short dashboard aliases
// (highest, lowest, az, za). Empty input selects the default.
func ParseSort(raw string) (Sort, error) {
	s, ok := sortAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("ParseSort: unknown sort %q: %w", raw, domain.ErrInvalidRequest)
	}
	return s, nil
}

// Filter narrows and orders an aggregated leaderboard. Zero value means
// no search, no minimum and the default ordering.
type Filter struct {
	Search   string
	MinTotal int64
	Sort     Sort
}

type Identity struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// Entry is one donation record in a donor's breakdown, annotated with the
// recipient fundraiser's creator.
type Entry struct {
	FundraiserID uuid.UUID
	Creator      Identity
	Amount       int64
	Timestamp    time.Time
}

type DonorAggregate struct {
	Donor       Identity
	TotalAmount int64
	Donations   []Entry
}

// ProfileIDs lists, once each, every donor and creator id the donations
// refer to. The result is sorted so lookups are reproducible.
func ProfileIDs(donations []domain.Donation, creators map[uuid.UUID]uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	for _, d := range donations {
		seen[d.DonorID] = struct{}{}
		if c, ok := creators[d.FundraiserID]; ok {
			seen[c] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Aggregate groups donations by donor. Totals are exact sums; each
// breakdown is ordered by timestamp. The result is ordered by donor id.
func Aggregate(donations []domain.Donation, creators map[uuid.UUID]uuid.UUID, profiles map[uuid.UUID]domain.Profile) []DonorAggregate {
	byDonor := make(map[uuid.UUID]*DonorAggregate)
	creatorIdentities := make(map[uuid.UUID]Identity)

	for _, d := range donations {
		agg, ok := byDonor[d.DonorID]
		if !ok {
			agg = &DonorAggregate{Donor: resolve(d.DonorID, profiles, AnonymousName)}
			byDonor[d.DonorID] = agg
		}

		creator := Identity{Name: UnknownCreatorName}
		if creatorID, ok := creators[d.FundraiserID]; ok {
			creator, ok = creatorIdentities[creatorID]
			if !ok {
				creator = resolve(creatorID, profiles, UnknownCreatorName)
				creatorIdentities[creatorID] = creator
			}
		}

		agg.TotalAmount += d.Amount
		agg.Donations = append(agg.Donations, Entry{
			FundraiserID: d.FundraiserID,
			Creator:      creator,
			Amount:       d.Amount,
			Timestamp:    d.Timestamp,
		})
	}

	out := make([]DonorAggregate, 0, len(byDonor))
	for _, agg := range byDonor {
		sort.SliceStable(agg.Donations, func(i, j int) bool {
			a, b := agg.Donations[i], agg.Donations[j]
			if !a.Timestamp.Equal(b.Timestamp) {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.FundraiserID.String() < b.FundraiserID.String()
		})
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Donor.ID.String() < out[j].Donor.ID.String() })
	return out
}

// Apply filters and sorts aggregates. The input slice is not modified.
func Apply(aggregates []DonorAggregate, f Filter) []DonorAggregate {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))

	out := make([]DonorAggregate, 0, len(aggregates))
	for _, agg := range aggregates {
		if agg.TotalAmount < f.MinTotal {
			continue
		}
		if needle != "" && !matches(fold, agg.Donor, needle) {
			continue
		}
		out = append(out, agg)
	}

	order := f.Sort
	if order == "" {
		order = SortTotalDesc
	}
	sortAggregates(out, order)
	return out
}

// Build aggregates and then applies f.
func Build(donations []domain.Donation, creators map[uuid.UUID]uuid.UUID, profiles map[uuid.UUID]domain.Profile, f Filter) []DonorAggregate {
	return Apply(Aggregate(donations, creators, profiles), f)
}

func resolve(id uuid.UUID, profiles map[uuid.UUID]domain.Profile, fallback string) Identity {
	p, ok := profiles[id]
	if !ok || p.Name == "" {
		ident := Identity{ID: id, Name: fallback}
		if ok {
			ident.Email = p.Email
		}
		return ident
	}
	return Identity{ID: id, Name: p.Name, Email: p.Email}
}

func matches(fold cases.Caser, donor Identity, needle string) bool {
	for _, field := range []string{donor.Name, donor.Email, donor.ID.String()} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

func sortAggregates(aggs []DonorAggregate, order Sort) {
	col := collate.New(language.English, collate.IgnoreCase)
	byID := func(a, b DonorAggregate) bool { return a.Donor.ID.String() < b.Donor.ID.String() }

	sort.SliceStable(aggs, func(i, j int) bool {
		a, b := aggs[i], aggs[j]
		switch order {
		case SortTotalAsc:
			if a.TotalAmount != b.TotalAmount {
				return a.TotalAmount < b.TotalAmount
			}
		case SortNameAsc, SortNameDesc:
			if c := col.CompareString(a.Donor.Name, b.Donor.Name); c != 0 {
				if order == SortNameDesc {
					return c > 0
				}
				return c < 0
			}
		default:
			if a.TotalAmount != b.TotalAmount {
				return a.TotalAmount > b.TotalAmount
			}
		}
		return byID(a, b)
	})
}
