package distance

import "errors"

var (
	// ErrInconsistent is returned by Build when the decomposition does not
	// describe the graph: dangling boundaries, nodes claimed twice or not at
	// all, edges into the middle of a nested chain, or a malformed tree.
	ErrInconsistent = errors.New("decomposition is inconsistent with the graph")

	// ErrInvalidPosition is returned for a position on a missing node or
	// with an offset outside the node.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrNotInRegion is returned by MinDistanceIn when a node is not part of
	// the given region's net graph.
	ErrNotInRegion = errors.New("node is not in region")

	// ErrUnknownRegion is returned when a region is not in the index.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrNoMaxIndex is returned by MaxDistance on an index built without a cap.
	ErrNoMaxIndex = errors.New("index has no max-distance estimator")

	// ErrCorrupt is returned by Load for truncated or malformed streams.
	ErrCorrupt = errors.New("corrupt index stream")

	// ErrIDBoundsMismatch is returned by Load when the stream was built for a
	// graph with different node id bounds.
	ErrIDBoundsMismatch = errors.New("index id bounds do not match graph")
)
