package customer

import (
	"cmp"
	"time"
)

// Customer is one row of the TPC-C customer table. Only the group fields and
// First take part in the by-name lookup; everything else is carried along.
type Customer struct {
	ID          int32
	DistrictID  int32
	WarehouseID int32
	First       string
	Middle      string
	Last        string

	Street1   *string
	Street2   *string
	City      *string
	State     *string
	Zip       *string
	Phone     *string
	Credit    *string
	CreditLim *float64
	Discount  *float64
	Balance   *float64
	Since     *time.Time
}

// Params are the transaction parameters selecting one customer group.
type Params struct {
	Last        string
	DistrictID  int32
	WarehouseID int32
}

// Matches reports whether c belongs to the group described by p.
func (p Params) Matches(c Customer) bool {
	return Matches(c, p.Last, p.DistrictID, p.WarehouseID)
}

// Matches reports whether c has exactly the given last name, district and warehouse.
func Matches(c Customer, last string, districtID, warehouseID int32) bool {
	return c.Last == last && c.DistrictID == districtID && c.WarehouseID == warehouseID
}

// Tagged pairs a customer with its sum key. The sum key identifies the
// customer for deletions only; ordering always uses First.
type Tagged struct {
	SumKey   int64
	Customer Customer
}

// SumKey returns id + district + warehouse.
func SumKey(c Customer) int64 {
	return int64(c.ID) + int64(c.DistrictID) + int64(c.WarehouseID)
}

// Tag wraps c with its sum key.
func Tag(c Customer) Tagged {
	return Tagged{SumKey: SumKey(c), Customer: c}
}

// CompareFirst orders customers by first name.
func CompareFirst(a, b Customer) int {
	return cmp.Compare(a.First, b.First)
}

// CompareTagged orders tagged customers by first name.
func CompareTagged(a, b Tagged) int {
	return cmp.Compare(a.Customer.First, b.Customer.First)
}

// Median returns the element at len/2 of a sorted aggregate.
func Median(sorted []Tagged) (Customer, bool) {
	if len(sorted) == 0 {
		return Customer{}, false
	}
	return sorted[len(sorted)/2].Customer, true
}

// IsSorted reports whether s is non-decreasing by first name.
func IsSorted(s []Tagged) bool {
	for i := 1; i < len(s); i++ {
		if CompareTagged(s[i-1], s[i]) > 0 {
			return false
		}
	}
	return true
}
