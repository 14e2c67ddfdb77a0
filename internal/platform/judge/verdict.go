package judge

// StatusID is Judge0's numeric verdict id.
type StatusID int

const (
	StatusInQueue             StatusID = 1
	StatusProcessing          StatusID = 2
	StatusAccepted            StatusID = 3
	StatusWrongAnswer         StatusID = 4
	StatusTimeLimitExceeded   StatusID = 5
	StatusCompilationError    StatusID = 6
	StatusRuntimeErrorSIGSEGV StatusID = 7
	StatusRuntimeErrorSIGXFSZ StatusID = 8
	StatusRuntimeErrorSIGFPE  StatusID = 9
	StatusRuntimeErrorSIGABRT StatusID = 10
	StatusRuntimeErrorNZEC    StatusID = 11
	StatusRuntimeErrorOther   StatusID = 12
	StatusInternalError       StatusID = 13
	StatusExecFormatError     StatusID = 14
)

var statusDescriptions = map[StatusID]string{
	StatusInQueue:             "In Queue",
	StatusProcessing:          "Processing",
	StatusAccepted:            "Accepted",
	StatusWrongAnswer:         "Wrong Answer",
	StatusTimeLimitExceeded:   "Time Limit Exceeded",
	StatusCompilationError:    "Compilation Error",
	StatusRuntimeErrorSIGSEGV: "Runtime Error (SIGSEGV)",
	StatusRuntimeErrorSIGXFSZ: "Runtime Error (SIGXFSZ)",
	StatusRuntimeErrorSIGFPE:  "Runtime Error (SIGFPE)",
	StatusRuntimeErrorSIGABRT: "Runtime Error (SIGABRT)",
	StatusRuntimeErrorNZEC:    "Runtime Error (NZEC)",
	StatusRuntimeErrorOther:   "Runtime Error (Other)",
	StatusInternalError:       "Internal Error",
	StatusExecFormatError:     "Exec Format Error",
}

// Passed is the only place that decides what counts as a passing verdict.
func (s StatusID) Passed() bool {
	return s == StatusAccepted
}

// Description returns the judge's name for s, or "Unknown".
func (s StatusID) Description() string {
	if d, ok := statusDescriptions[s]; ok {
		return d
	}
	return "Unknown"
}
