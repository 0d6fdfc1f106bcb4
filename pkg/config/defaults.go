package config

// Input and output defaults.
const (
	DefaultInput  = "-"
	DefaultOutput = "-"
)

// Spike defaults.
const (
	DefaultSpikeType             = "row"
	DefaultSpikeDifferenceMethod = "logfold"
	DefaultSpikeBinMin           = 0.0
	DefaultSpikeBinMax           = 100.0
	DefaultSpikeBinWidth         = 100.0
	DefaultSubclusterMinSize     = 1
	DefaultSubclusterMaxSize     = 1
	DefaultSubclusterBinWidth    = 1
	DefaultSpikeMinimum          = 0 // Zero means the maximum.
	DefaultSpikeMaximum          = 100
	DefaultSpikeIterations       = 1
	DefaultSpikeOutputMethod     = "separate"
	DefaultClusterMaxDistance    = 100.0
	DefaultClusterMinSize        = 10
	DefaultSpikeWorkers          = 1
)

// Filter defaults.
const (
	DefaultFilterMinCountsPerRow    = 1.0
	DefaultFilterMinCountsPerSample = 10.0
	DefaultFilterPercentileRowSums  = 0.0
)

// DefaultNormalizationMethod is the size-factor normalization.
const DefaultNormalizationMethod = "deseq-size-factors"

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)
