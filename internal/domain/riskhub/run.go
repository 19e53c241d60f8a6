package riskhub

type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunError   RunStatus = "error"
)

func (s RunStatus) Terminal() bool {
	return s == RunDone || s == RunError
}
