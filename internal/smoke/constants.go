package smoke

import "time"

// Defaults for probe runs.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
	DefaultWorkers = 4
)

// averageTolerance absorbs float rounding between the server and the probe.
const averageTolerance = 1e-6

// unknownFilter is a label no record can carry.
const unknownFilter = "NoSuchQuadrant"
