package domain

// Stage names a step of the pipeline that emits progress events.
type Stage string

// Pipeline stages.
const (
	StageFingerprint Stage = "fingerprint"
	StageLoad        Stage = "load"
	StageSplit       Stage = "split"
	StageEmbed       Stage = "embed"
	StageWait        Stage = "wait"
	StagePersist     Stage = "persist"
	StageClassify    Stage = "classify"
	StageRetrieve    Stage = "retrieve"
	StageGenerate    Stage = "generate"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// Event is a progress notification emitted by the core.
type Event struct {
	Stage   Stage
	Message string
}
