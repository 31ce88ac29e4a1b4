// Package io provides JSON import and export for variation graphs together
// with their snarl decomposition.
//
// # JSON Format
//
// A document has four top-level arrays. Nodes and edges describe the
// graph; regions and chains describe the decomposition tree:
//
//	{
//	  "nodes": [
//	    {"id": 1, "length": 5},
//	    {"id": 2, "sequence": "ACG"},
//	    {"id": 3, "length": 4}
//	  ],
//	  "edges": [
//	    {"from": 1, "to": 2},
//	    {"from": 2, "to": 3}
//	  ],
//	  "regions": [
//	    {"start": {"node": 1}, "end": {"node": 2}},
//	    {"start": {"node": 2}, "end": {"node": 3}}
//	  ],
//	  "chains": [
//	    {"parent": -1, "regions": [0, 1]}
//	  ]
//	}
//
// # Node Fields
//
// Each node needs a positive integer id and either a length or a
// sequence. When both are given they must agree. Sequences are only used
// for their length; the index never stores bases.
//
// # Edge Fields
//
// An edge joins the end of "from" to the start of "to". Set "from_start"
// to leave from the start of the first node instead, and "to_end" to enter
// the second node at its end; these are the two orientation flags of a GFA
// link. An edge and its reverse twin are the same edge.
//
// # Decomposition
//
// Regions are addressed by their position in the "regions" array. A
// region's "start" and "end" are visits: a node plus an optional
// "backward" flag. Each chain lists its regions in order and names the
// region it is nested in, or -1 for a top-level chain.
//
// # Import
//
// Use [ImportJSON] to read a file, or [ReadJSON] to read from any
// io.Reader:
//
//	g, tree, err := io.ImportJSON("graph.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both validate graph references and the structure of the tree. Whether
// the tree actually decomposes the graph is checked by distance.Build.
//
// # Export
//
// Use [ExportJSON] to write a file, or [WriteJSON] to write to any
// io.Writer. Export writes lengths, never sequences, and edges in
// canonical sorted order, so exporting the same graph twice gives the same
// bytes.
package io
