// Package snarl models a precomputed hierarchical decomposition of a
// variation graph into regions (snarls) and chains.
//
// # Regions and chains
//
// A [Region] is bounded by two visits: the start visit points into the
// region and the end visit points out of it. Regions that follow each other
// end to end form a chain; region i's end visit equals region i+1's start
// visit, so neighbouring regions share a boundary node. A chain may hold a
// single region.
//
// Chains nest inside regions. A chain whose parent is [NoRegion] is a
// top-level chain.
//
// # Arenas
//
// The tree stores regions and chains in flat arenas addressed by [RegionID]
// and [ChainID]. Parent, child and membership links are stored as ids, so
// the tree has no pointer cycles:
//
//	t := snarl.New()
//	a := t.AddRegion(snarl.Fwd(1), snarl.Fwd(2))
//	b := t.AddRegion(snarl.Fwd(2), snarl.Fwd(3))
//	t.AddChain(snarl.NoRegion, a, b)
//
// Call [Tree.Validate] before handing a tree to the distance index.
package snarl
