package models

const (
	hourlyRate         = 7
	discountHourlyRate = 6
	discountThreshold  = 15 // orders above this many hours use the discount rate throughout
	packagePrice       = 150
	systemPrice        = 50
	systemAddOnPrice   = 50
)

// CalculateAmount prices an order. The whole hourly order uses one flat
// per-hour rate chosen by its total hours; it is not a marginal tier.
func CalculateAmount(orderType OrderType, hours int, includeSystem bool) int {
	var amount int
	switch orderType {
	case OrderTypeHourly:
		if hours <= discountThreshold {
			amount = hours * hourlyRate
		} else {
			amount = hours * discountHourlyRate
		}
	case OrderTypePackage:
		amount = packagePrice
	case OrderTypeSystem:
		// the system add-on is already what this type sells
		return systemPrice
	}

	if includeSystem {
		amount += systemAddOnPrice
	}
	return amount
}

// NormalizeHours returns the stored hour count for an order type
func NormalizeHours(orderType OrderType, hours int) int {
	switch orderType {
	case OrderTypePackage:
		return PackageHours
	case OrderTypeSystem:
		return 0
	default:
		return hours
	}
}
