// Package kcdb is a client for the BIPM Key Comparison Database (KCDB) API.
//
// It covers the three KCDB domains. Each domain has a navigator that walks the
// reference-data hierarchy and runs CMC searches:
//
//	physics := kcdb.NewGeneralPhysics(kcdb.Config{})
//	areas, err := physics.MetrologyAreas(ctx)
//	...
//	q := kcdb.NewGeneralPhysicsQuery(kcdb.Label("EM"))
//	q.Branch = kcdb.Label("EM/RF")
//	q.PhysicsCode = kcdb.PhysicsCode("11.3.3")
//	q.Countries = kcdb.Countries("CH", "FR", "JP")
//	results, err := physics.Search(ctx, q)
//
// Failures can be classified with errors.Is against the Err* sentinels.
package kcdb
