// README: Pure trip cost computation. No I/O in this file.
package budget

import "math"

const (
	// minConsumption guards the liters division against zero consumption.
	minConsumption = 0.0001
	// monthlyCostDivisor amortizes a driver's monthly salary per 15-day work
	// block. Domain convention, not a business-day count.
	monthlyCostDivisor = 15
	// profitableFuelShareMax: a trip is considered profitable while fuel
	// stays under 30% of the total price. Coarse business rule.
	profitableFuelShareMax = 30.0
)

// Input carries every scalar the cost formula consumes. Driver costs are the
// sums across all assigned drivers.
type Input struct {
	TotalDistanceKm   float64
	Consumption       float64
	FuelPrice         float64
	DriverCostMonthly float64
	DriverCostDaily   float64
	DaysOut           int
	Toll              float64
	FixedCost         float64
	DesiredProfit     float64
	TaxPercent        float64
	ExtraCost         float64
}

// Breakdown is the full priced result. Only TripPrice-adjacent fields are
// persisted; the rest is returned to the caller for display.
type Breakdown struct {
	LitersConsumed    float64 `json:"liters_consumed"`
	FuelCost          float64 `json:"fuel_cost"`
	MonthlyDriverCost float64 `json:"monthly_driver_cost"`
	DailyDriverCost   float64 `json:"daily_driver_cost"`
	Subtotal          float64 `json:"subtotal"`
	Tax               float64 `json:"tax"`
	TotalPrice        float64 `json:"total_price"`
	DesiredProfit     float64 `json:"desired_profit"`
	FuelSharePercent  float64 `json:"fuel_share_percent"`
	WasProfitable     bool    `json:"was_profitable"`
}

// Calculate prices a trip from scratch. All inputs are sanitized: non-finite
// values become 0, consumption is floored just above zero, days out is
// floored at 1.
func Calculate(in Input) Breakdown {
	distance := safe(in.TotalDistanceKm)
	consumption := math.Max(safe(in.Consumption), minConsumption)
	fuelPrice := safe(in.FuelPrice)
	monthlyCost := safe(in.DriverCostMonthly)
	dailyRate := safe(in.DriverCostDaily)
	days := float64(atLeastOne(in.DaysOut))
	toll := safe(in.Toll)
	fixedCost := safe(in.FixedCost)
	profit := safe(in.DesiredProfit)
	taxPercent := safe(in.TaxPercent)
	extraCost := safe(in.ExtraCost)

	liters := distance / consumption
	fuelCost := liters * fuelPrice
	monthlyDriverCost := monthlyCost / monthlyCostDivisor
	dailyDriverCost := dailyRate * days

	subtotal := fuelCost + monthlyDriverCost + dailyDriverCost + toll + fixedCost + profit + extraCost
	tax := subtotal * (taxPercent / 100)
	totalPrice := subtotal + tax

	fuelShare := 0.0
	if totalPrice > 0 {
		fuelShare = (fuelCost / totalPrice) * 100
	}

	return Breakdown{
		LitersConsumed:    liters,
		FuelCost:          fuelCost,
		MonthlyDriverCost: monthlyDriverCost,
		DailyDriverCost:   dailyDriverCost,
		Subtotal:          subtotal,
		Tax:               tax,
		TotalPrice:        totalPrice,
		DesiredProfit:     profit,
		FuelSharePercent:  fuelShare,
		WasProfitable:     fuelShare < profitableFuelShareMax,
	}
}

// PricingMode selects how TripPrice and DesiredProfit relate on an update.
type PricingMode int

const (
	// Recompute derives the trip price from the full formula.
	Recompute PricingMode = iota
	// PriceOverride fixes the trip price and back-solves the profit.
	PriceOverride
	// ProfitOverride fixes the profit and back-solves the trip price.
	ProfitOverride
)

// Pricing is the tagged override input. Value is ignored in Recompute mode.
type Pricing struct {
	Mode  PricingMode
	Value float64
}

// ResolvePricing applies the pricing strategy to the sanitized inputs. In the
// override modes the fixed side is taken as-is and the other side is solved
// from price = base + tax(base) + profit, where base excludes profit; the
// profitability flag then follows the sign of the profit rather than the fuel
// share.
func ResolvePricing(in Input, p Pricing) Breakdown {
	if p.Mode == Recompute {
		return Calculate(in)
	}

	base := in
	base.DesiredProfit = 0
	b := Calculate(base)

	switch p.Mode {
	case PriceOverride:
		b.TotalPrice = safe(p.Value)
		b.DesiredProfit = b.TotalPrice - (b.Subtotal + b.Tax)
	case ProfitOverride:
		b.DesiredProfit = safe(p.Value)
		b.TotalPrice = b.Subtotal + b.Tax + b.DesiredProfit
	}

	b.FuelSharePercent = 0
	if b.TotalPrice > 0 {
		b.FuelSharePercent = (b.FuelCost / b.TotalPrice) * 100
	}
	b.WasProfitable = b.DesiredProfit > 0
	return b
}

func safe(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
