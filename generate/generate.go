// Package generate builds deterministic customer batches for the by-name
// benchmark: a base load, one update batch and a deletion batch taken from
// the middle of the base load.
package generate

import (
	"fmt"

	"github.com/davidvella/byname/customer"
)

// Transaction parameters shared by every generated customer.
const (
	LastName    = "lastname"
	DistrictID  = int32(43)
	WarehouseID = int32(44)
)

// Batches is the output of Customers.
type Batches struct {
	Base      []customer.Customer
	Updates   []customer.Customer
	Deletions []customer.Customer
	Params    customer.Params
}

// Params returns the group every generated customer belongs to.
func Params() customer.Params {
	return customer.Params{Last: LastName, DistrictID: DistrictID, WarehouseID: WarehouseID}
}

// FirstName returns the first name of customer i. Names are zero padded so
// their lexicographic order is the numeric order of i.
func FirstName(i int) string {
	return fmt.Sprintf("first%010d", i)
}

// Customers generates baseSize base customers, updateSize update customers
// and deleteSize deletions. Base and updates arrive in descending first-name
// order so that the first tick has to do a real sort. Deletions are copies of
// Base[baseSize/2:baseSize/2+deleteSize], clamped to the end of Base.
func Customers(baseSize, updateSize, deleteSize int) Batches {
	baseSize = max(baseSize, 0)
	updateSize = max(updateSize, 0)
	deleteSize = max(deleteSize, 0)

	b := Batches{
		Base:    descending(baseSize, 0),
		Updates: descending(updateSize, baseSize),
		Params:  Params(),
	}

	from := min(baseSize/2, len(b.Base))
	to := min(from+deleteSize, len(b.Base))
	b.Deletions = append([]customer.Customer(nil), b.Base[from:to]...)

	return b
}

// Foreign generates n customers outside the generated group, with ids from
// startID upwards. Each one differs from Params in exactly one group field.
func Foreign(n, startID int) []customer.Customer {
	out := make([]customer.Customer, 0, max(n, 0))
	for i := 0; i < n; i++ {
		c := newCustomer(startID + i)
		switch i % 3 {
		case 0:
			c.Last = LastName + "-other"
		case 1:
			c.DistrictID = DistrictID + 1
		default:
			c.WarehouseID = WarehouseID + 1
		}
		out = append(out, c)
	}
	return out
}

func descending(n, offset int) []customer.Customer {
	out := make([]customer.Customer, 0, n)
	for i := offset + n - 1; i >= offset; i-- {
		out = append(out, newCustomer(i))
	}
	return out
}

func newCustomer(i int) customer.Customer {
	credit := "GC"
	balance := -10.0
	return customer.Customer{
		ID:          int32(i),
		DistrictID:  DistrictID,
		WarehouseID: WarehouseID,
		First:       FirstName(i),
		Middle:      "OE",
		Last:        LastName,
		Credit:      &credit,
		Balance:     &balance,
	}
}
