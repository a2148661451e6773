// Package customer defines the record model shared by every by-name strategy:
// the TPC-C customer row, the transaction parameters that select a customer
// group, and the tagged projection used to match deletions.
//
// A group is the (last name, district, warehouse) triple. Within a group,
// customers are ordered by first name only; equal names keep their arrival
// order, which is why every strategy in this module sorts and merges stably.
//
// Basic usage:
//
//	params := customer.Params{Last: "lastname", DistrictID: 43, WarehouseID: 44}
//	var group []customer.Tagged
//	for _, c := range rows {
//	    if params.Matches(c) {
//	        group = append(group, customer.Tag(c))
//	    }
//	}
//	slices.SortStableFunc(group, customer.CompareTagged)
//	median, ok := customer.Median(group)
package customer
