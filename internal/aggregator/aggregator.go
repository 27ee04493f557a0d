// =============================================================================
// CSV Parser - Aggregator Module
// =============================================================================
//
// This module computes the statistics of a completed parse. It is a pure
// function of the accepted records and does no I/O.
//
// FIGURES:
//   - TotalItems:   sum of quantities.
//   - TotalRevenue: sum of round(price x quantity) per record. Every term is
//                   rounded before it is added, so the result can differ from
//                   rounding the grand total once.
//   - Per dimension and key:
//       items    - sum of quantities
//       revenue  - sum of rounded price x quantity
//       avgPrice - mean of the unrounded prices
//
// Rounding is decimal, half away from zero, to aggregation.fraction_digits.
//
// =============================================================================

package aggregator

import (
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Maksym-Tokariev/csv-parser/internal/config"
	"github.com/Maksym-Tokariev/csv-parser/internal/types"
)

// Aggregator computes StatData.
type Aggregator struct {
	log      *zap.Logger
	settings config.AggregationSettings

	price    string
	quantity string
}

// New creates an aggregator. The price and quantity columns are the ones
// with the price and quantity roles.
func New(log *zap.Logger, settings *config.Settings) *Aggregator {
	price, _ := settings.ColumnFor(config.RolePrice)
	quantity, _ := settings.ColumnFor(config.RoleQuantity)

	return &Aggregator{
		log:      log,
		settings: settings.Aggregation(),
		price:    price,
		quantity: quantity,
	}
}

// groupAccumulator collects the running sums of one dimension key.
type groupAccumulator struct {
	items    int64
	revenue  decimal.Decimal
	priceSum decimal.Decimal
	records  int64
}

// Aggregate computes the statistics of a parse result. An empty result gives
// zero totals and empty dimension maps.
func (a *Aggregator) Aggregate(result *types.ParseResult) types.StatData {
	stat := types.StatData{
		TotalRevenue:   decimal.Zero,
		FractionDigits: a.settings.FractionDigits,
		Dimensions:     []types.DimensionResult{},
	}

	var records []types.Record
	if result != nil {
		records = result.Records
	}

	if a.settings.Enabled {
		a.totals(records, &stat)
	}

	for _, dim := range a.settings.Dimensions {
		dimResult := types.DimensionResult{
			Name:   dim.Name,
			Column: dim.Column,
			Stats:  types.NewDimensionStats(),
		}
		if a.settings.Enabled && a.settings.CalculateDimensionStats {
			dimResult.Stats = a.dimension(records, dim.Column)
			dimResult.Count = len(dimResult.Stats.Keys)
		}
		stat.Dimensions = append(stat.Dimensions, dimResult)
	}

	a.log.Debug("aggregated",
		zap.Int("records", len(records)),
		zap.Int64("totalItems", stat.TotalItems),
		zap.String("totalRevenue", stat.TotalRevenue.StringFixed(stat.FractionDigits)))

	return stat
}

// totals computes TotalItems and TotalRevenue.
func (a *Aggregator) totals(records []types.Record, stat *types.StatData) {
	for _, record := range records {
		price, quantity := a.values(record)

		if a.settings.CalculateTotalItems {
			stat.TotalItems += quantity
		}
		if a.settings.CalculateTotalRevenue {
			stat.TotalRevenue = stat.TotalRevenue.Add(a.revenue(price, quantity))
		}
	}
}

// dimension groups records by the raw value of a column.
func (a *Aggregator) dimension(records []types.Record, column string) types.DimensionStats {
	groups := make(map[string]*groupAccumulator)

	for _, record := range records {
		key := record.Value(column)
		price, quantity := a.values(record)

		group, ok := groups[key]
		if !ok {
			group = &groupAccumulator{revenue: decimal.Zero, priceSum: decimal.Zero}
			groups[key] = group
		}
		group.items += quantity
		group.revenue = group.revenue.Add(a.revenue(price, quantity))
		group.priceSum = group.priceSum.Add(price)
		group.records++
	}

	stats := types.NewDimensionStats()
	for key, group := range groups {
		stats.Items[key] = group.items
		stats.Revenue[key] = group.revenue
		stats.AvgPrice[key] = group.priceSum.Div(decimal.NewFromInt(group.records))
	}
	stats.SortKeys()

	return stats
}

// revenue is price x quantity rounded to the configured precision.
func (a *Aggregator) revenue(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity)).Round(a.settings.FractionDigits)
}

// values parses the price and quantity of a record. Records were validated
// before, so a value that does not parse counts as zero.
func (a *Aggregator) values(record types.Record) (decimal.Decimal, int64) {
	price := decimal.Zero
	if raw, ok := record.Get(a.price); ok {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			a.log.Warn("unparsable price", zap.Int("line", record.Line()), zap.String("value", raw))
		} else {
			price = parsed
		}
	}

	var quantity int64
	if raw, ok := record.Get(a.quantity); ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			a.log.Warn("unparsable quantity", zap.Int("line", record.Line()), zap.String("value", raw))
		} else {
			quantity = parsed
		}
	}

	return price, quantity
}
