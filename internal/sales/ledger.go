package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMap sums payment amounts per sale ID. Sales without payments are
// absent and read back as zero.
func PaymentMap(payments []Payment) map[string]decimal.Decimal {
	paid := make(map[string]decimal.Decimal, len(payments))
	for _, p := range payments {
		paid[p.SaleID] = paid[p.SaleID].Add(p.Amount)
	}
	return paid
}

// Remaining returns what is still owed on sale given the cumulative amounts
// in paid.
func Remaining(sale *Sale, paid map[string]decimal.Decimal) decimal.Decimal {
	return sale.TotalAmount.Sub(paid[sale.ID])
}

// AggregateCustomers groups outstanding credit sales by customer name and
// sums what remains owed on each. Sales that are already covered by payments
// are left out, so a customer with nothing left to pay does not appear.
// Customers are returned in the order their first outstanding sale appears.
func AggregateCustomers(sales []*Sale, paid map[string]decimal.Decimal) []Customer {
	index := make(map[CustomerName]int)
	customers := make([]Customer, 0)

	for _, sale := range sales {
		if sale.CustomerName == nil {
			continue
		}
		remaining := Remaining(sale, paid)
		if !remaining.IsPositive() {
			continue
		}

		name := *sale.CustomerName
		i, ok := index[name]
		if !ok {
			index[name] = len(customers)
			customers = append(customers, Customer{
				Name:         name,
				TotalCredit:  remaining,
				LastSaleDate: sale.Date,
			})
			continue
		}

		c := &customers[i]
		c.TotalCredit = c.TotalCredit.Add(remaining)
		if sale.Date.After(c.LastSaleDate) {
			c.LastSaleDate = sale.Date
		}
	}

	return customers
}

// OutstandingTotal sums the remaining balance of every sale that still has
// one.
func OutstandingTotal(sales []*Sale, paid map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		if remaining := Remaining(sale, paid); remaining.IsPositive() {
			total = total.Add(remaining)
		}
	}
	return total
}

// AllocatePayment spreads amount over sales in the order given, which must be
// oldest first. Each sale receives at most its remaining balance and is
// listed in SalesToUpdate once that balance is fully covered. Whatever is
// left after the last sale is not allocated; callers validate amount against
// the outstanding total first.
func AllocatePayment(sales []*Sale, paid map[string]decimal.Decimal, amount decimal.Decimal, paymentDate time.Time) Allocation {
	alloc := Allocation{
		PaymentsToRecord: make([]Payment, 0),
		SalesToUpdate:    make([]string, 0),
	}

	remainingPayment := amount
	for _, sale := range sales {
		if !remainingPayment.IsPositive() {
			break
		}

		due := Remaining(sale, paid)
		if !due.IsPositive() {
			continue
		}

		allocated := decimal.Min(remainingPayment, due)
		alloc.PaymentsToRecord = append(alloc.PaymentsToRecord, Payment{
			SaleID:      sale.ID,
			Amount:      allocated,
			PaymentDate: paymentDate,
		})
		if allocated.GreaterThanOrEqual(due) {
			alloc.SalesToUpdate = append(alloc.SalesToUpdate, sale.ID)
		}
		remainingPayment = remainingPayment.Sub(allocated)
	}

	return alloc
}
