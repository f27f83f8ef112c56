package market

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/partsight/partsight-cli/internal/currency"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

// PriceComparison reduces the current market data for one component into a
// sorted supplier table with lowest, average, and range. The recommended
// supplier is the cheapest one. With no offers at all it degrades to an
// empty comparison rather than failing.
func (a *Aggregator) PriceComparison(ctx context.Context, componentID, targetCurrency string) model.PriceComparison {
	if targetCurrency == "" {
		targetCurrency = a.cfg.TargetCurrency
	}
	out := model.PriceComparison{
		ComponentID: componentID,
		Currency:    targetCurrency,
		Suppliers:   []model.SupplierPrice{},
	}

	items := a.FetchMarketData(ctx, componentID, false, targetCurrency)
	if len(items) == 0 {
		err := eris.Errorf("market: no supplier offers for component %s", componentID)
		return recerr.Handle(a.errs,
			err,
			recerr.Context{Operation: "price_comparison", ComponentIDs: []string{componentID}},
			out,
			recerr.SeverityMedium,
		)
	}

	sum := 0.0
	for _, it := range items {
		sum += it.Price
		out.Suppliers = append(out.Suppliers, model.SupplierPrice{
			Supplier:     it.Supplier,
			Price:        it.Price,
			Display:      currency.Format(it.Price, targetCurrency),
			Availability: a.availability(it.Supplier),
		})
	}
	sort.Slice(out.Suppliers, func(i, j int) bool {
		return out.Suppliers[i].Price < out.Suppliers[j].Price
	})

	out.LowestPrice = out.Suppliers[0].Price
	out.AveragePrice = sum / float64(len(items))
	out.Range = model.PriceRange{
		Min: out.Suppliers[0].Price,
		Max: out.Suppliers[len(out.Suppliers)-1].Price,
	}
	out.RecommendedSupplier = out.Suppliers[0].Supplier
	return out
}

// availability tiers an offer by source reliability: an offer from a
// reliable supplier counts as in stock, anything else is unknown.
func (a *Aggregator) availability(supplierName string) model.Availability {
	src := a.sourceByName(supplierName)
	if src != nil && src.Reliable() {
		return model.AvailabilityInStock
	}
	return model.AvailabilityUnknown
}
