package sales

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func creditSale(id, customer, date, total string) *Sale {
	name := CustomerName(customer)
	return &Sale{
		ID:           id,
		CustomerName: &name,
		TotalAmount:  dec(total),
		Date:         day(date),
		PaymentType:  PaymentCredit,
	}
}

func TestPaymentMap(t *testing.T) {
	paid := PaymentMap([]Payment{
		{SaleID: "s1", Amount: dec("100.10")},
		{SaleID: "s2", Amount: dec("5")},
		{SaleID: "s1", Amount: dec("0.20")},
	})

	assert.Len(t, paid, 2)
	assert.True(t, dec("100.30").Equal(paid["s1"]))
	assert.True(t, dec("5").Equal(paid["s2"]))
	assert.True(t, paid["missing"].IsZero())
}

func TestAggregateCustomers(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "3000"),
		creditSale("s2", "Bola", "2024-01-02", "1500"),
		creditSale("s3", "Amaka", "2024-01-05", "2000"),
		creditSale("s4", "Chidi", "2024-01-03", "700"),
	}
	paid := PaymentMap([]Payment{
		{SaleID: "s1", Amount: dec("1000")},
		{SaleID: "s4", Amount: dec("700")},
	})

	customers := AggregateCustomers(sales, paid)

	require.Len(t, customers, 2)
	assert.Equal(t, CustomerName("Amaka"), customers[0].Name)
	assert.True(t, dec("4000").Equal(customers[0].TotalCredit), "got %s", customers[0].TotalCredit)
	assert.Equal(t, day("2024-01-05"), customers[0].LastSaleDate)
	assert.Equal(t, CustomerName("Bola"), customers[1].Name)
	assert.True(t, dec("1500").Equal(customers[1].TotalCredit))
}

func TestAggregateCustomers_ExcludesSettledSales(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "3000"),
		creditSale("s2", "Amaka", "2024-02-01", "500"),
	}
	// s2 is still flagged unpaid upstream but is covered by payments.
	paid := PaymentMap([]Payment{
		{SaleID: "s2", Amount: dec("300")},
		{SaleID: "s2", Amount: dec("200")},
	})

	customers := AggregateCustomers(sales, paid)

	require.Len(t, customers, 1)
	assert.True(t, dec("3000").Equal(customers[0].TotalCredit))
	assert.Equal(t, day("2024-01-01"), customers[0].LastSaleDate, "settled sale must not move the last sale date")
}

func TestAggregateCustomers_NamesAreExact(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "10"),
		creditSale("s2", "amaka", "2024-01-01", "10"),
		creditSale("s3", "Amaka ", "2024-01-01", "10"),
	}

	customers := AggregateCustomers(sales, nil)

	assert.Len(t, customers, 3)
}

func TestAggregateCustomers_Empty(t *testing.T) {
	customers := AggregateCustomers(nil, nil)

	assert.NotNil(t, customers)
	assert.Empty(t, customers)
}

func TestAggregateCustomers_Idempotent(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "3000"),
		creditSale("s2", "Bola", "2024-01-02", "1500.55"),
	}
	paid := PaymentMap([]Payment{{SaleID: "s2", Amount: dec("0.55")}})

	first := AggregateCustomers(sales, paid)
	second := AggregateCustomers(sales, paid)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.True(t, first[i].TotalCredit.Equal(second[i].TotalCredit))
	}
}

func TestAllocatePayment_OldestFirst(t *testing.T) {
	sales := []*Sale{
		creditSale("d1", "Amaka", "2024-01-01", "100"),
		creditSale("d2", "Amaka", "2024-01-02", "50"),
		creditSale("d3", "Amaka", "2024-01-03", "200"),
	}
	today := day("2024-03-01")

	alloc := AllocatePayment(sales, nil, dec("120"), today)

	require.Len(t, alloc.PaymentsToRecord, 2)
	assert.Equal(t, "d1", alloc.PaymentsToRecord[0].SaleID)
	assert.True(t, dec("100").Equal(alloc.PaymentsToRecord[0].Amount))
	assert.Equal(t, "d2", alloc.PaymentsToRecord[1].SaleID)
	assert.True(t, dec("20").Equal(alloc.PaymentsToRecord[1].Amount))
	assert.Equal(t, []string{"d1"}, alloc.SalesToUpdate)
	for _, p := range alloc.PaymentsToRecord {
		assert.Equal(t, today, p.PaymentDate)
	}
}

func TestAllocatePayment_ExactCover(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "3000"),
		creditSale("s2", "Amaka", "2024-01-05", "2000"),
	}

	alloc := AllocatePayment(sales, nil, dec("3000"), day("2024-03-01"))

	require.Len(t, alloc.PaymentsToRecord, 1)
	assert.Equal(t, "s1", alloc.PaymentsToRecord[0].SaleID)
	assert.Equal(t, []string{"s1"}, alloc.SalesToUpdate)
}

func TestAllocatePayment_Conservation(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "0.10"),
		creditSale("s2", "Amaka", "2024-01-02", "0.20"),
		creditSale("s3", "Amaka", "2024-01-03", "0.30"),
		creditSale("s4", "Amaka", "2024-01-04", "1999.99"),
	}

	for _, amount := range []string{"0.01", "0.10", "0.30", "0.60", "0.61", "1000.33", "2000.59"} {
		t.Run(amount, func(t *testing.T) {
			alloc := AllocatePayment(sales, nil, dec(amount), day("2024-03-01"))
			assert.True(t, dec(amount).Equal(alloc.Total()), "allocated %s of %s", alloc.Total(), amount)
		})
	}
}

func TestAllocatePayment_UsesRemainingBalance(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "3000"),
		creditSale("s2", "Amaka", "2024-01-05", "2000"),
	}
	paid := PaymentMap([]Payment{{SaleID: "s1", Amount: dec("2500")}})

	alloc := AllocatePayment(sales, paid, dec("1000"), day("2024-03-01"))

	require.Len(t, alloc.PaymentsToRecord, 2)
	assert.True(t, dec("500").Equal(alloc.PaymentsToRecord[0].Amount))
	assert.True(t, dec("500").Equal(alloc.PaymentsToRecord[1].Amount))
	assert.Equal(t, []string{"s1"}, alloc.SalesToUpdate)
}

func TestAllocatePayment_SkipsSettledSales(t *testing.T) {
	sales := []*Sale{
		creditSale("s1", "Amaka", "2024-01-01", "300"),
		creditSale("s2", "Amaka", "2024-01-05", "200"),
	}
	paid := PaymentMap([]Payment{{SaleID: "s1", Amount: dec("300")}})

	alloc := AllocatePayment(sales, paid, dec("200"), day("2024-03-01"))

	require.Len(t, alloc.PaymentsToRecord, 1)
	assert.Equal(t, "s2", alloc.PaymentsToRecord[0].SaleID)
	assert.Equal(t, []string{"s2"}, alloc.SalesToUpdate)
}

func TestAllocatePayment_ExcessIsNotAllocated(t *testing.T) {
	sales := []*Sale{creditSale("s1", "Amaka", "2024-01-01", "100")}

	alloc := AllocatePayment(sales, nil, dec("150"), day("2024-03-01"))

	assert.True(t, dec("100").Equal(alloc.Total()))
	assert.Equal(t, []string{"s1"}, alloc.SalesToUpdate)
}
